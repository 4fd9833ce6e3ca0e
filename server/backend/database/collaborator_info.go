/*
 * Copyright 2025 The Redline Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"time"

	"github.com/redline-team/redline/api/types"
)

// CollaboratorInfo is a per-document capability grant. Revoking sets
// IsActive to false rather than deleting the row, so suggestions, changes,
// and comments made while access was valid keep their attribution.
type CollaboratorInfo struct {
	// ID is the unique ID of the grant.
	ID types.ID `bson:"_id" json:"id"`

	// DocumentID is the document the grant applies to.
	DocumentID types.ID `bson:"document_id" json:"document_id"`

	// UserID is the user the grant applies to.
	UserID types.ID `bson:"user_id" json:"user_id"`

	// CanEdit allows direct edits.
	CanEdit bool `bson:"can_edit" json:"can_edit"`

	// CanSuggest allows proposing suggestions and track changes.
	CanSuggest bool `bson:"can_suggest" json:"can_suggest"`

	// CanComment allows creating inline comments.
	CanComment bool `bson:"can_comment" json:"can_comment"`

	// CanResolve allows accepting or rejecting proposals and threads.
	CanResolve bool `bson:"can_resolve" json:"can_resolve"`

	// CanManage allows managing collaborators and document settings.
	CanManage bool `bson:"can_manage" json:"can_manage"`

	// InvitedBy is the user who created the grant.
	InvitedBy types.ID `bson:"invited_by" json:"invited_by"`

	// ExpiresAt revokes the grant after the given time, if set.
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`

	// IsActive is false once the grant has been revoked.
	IsActive bool `bson:"is_active" json:"is_active"`

	// CreatedAt is the time the grant was created.
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// UpdatedAt is the time the grant was last modified.
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DeepCopy returns a deep copy of this CollaboratorInfo.
func (i *CollaboratorInfo) DeepCopy() *CollaboratorInfo {
	if i == nil {
		return nil
	}

	clone := *i
	if i.ExpiresAt != nil {
		t := *i.ExpiresAt
		clone.ExpiresAt = &t
	}
	return &clone
}

// IsValid returns whether the grant confers any access at the given time.
// A revoked or expired grant evaluates to false for every capability.
func (i *CollaboratorInfo) IsValid(now time.Time) bool {
	if !i.IsActive {
		return false
	}
	if i.ExpiresAt != nil && !now.Before(*i.ExpiresAt) {
		return false
	}
	return true
}

// HasCapability returns whether the grant confers the given capability at
// the given time.
func (i *CollaboratorInfo) HasCapability(capability types.Capability, now time.Time) bool {
	if !i.IsValid(now) {
		return false
	}

	switch capability {
	case types.CapabilityEdit:
		return i.CanEdit
	case types.CapabilitySuggest:
		return i.CanSuggest
	case types.CapabilityComment:
		return i.CanComment
	case types.CapabilityResolve:
		return i.CanResolve
	case types.CapabilityManage:
		return i.CanManage
	default:
		return false
	}
}

// ApplyFields overwrites the grant fields present in the given update.
func (i *CollaboratorInfo) ApplyFields(fields *types.CollaboratorFields) {
	if fields.CanEdit != nil {
		i.CanEdit = *fields.CanEdit
	}
	if fields.CanSuggest != nil {
		i.CanSuggest = *fields.CanSuggest
	}
	if fields.CanComment != nil {
		i.CanComment = *fields.CanComment
	}
	if fields.CanResolve != nil {
		i.CanResolve = *fields.CanResolve
	}
	if fields.CanManage != nil {
		i.CanManage = *fields.CanManage
	}
	if fields.ExpiresAt != nil {
		t := *fields.ExpiresAt
		i.ExpiresAt = &t
	}
}
