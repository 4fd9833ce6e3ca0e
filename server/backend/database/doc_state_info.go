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

// DocStateInfo is the single document-wide mutable row: the lock and the
// feature toggles that gate suggestions and track changes. It is keyed by
// document id with upsert semantics; absence implies the defaults.
type DocStateInfo struct {
	// DocumentID is the document the state belongs to.
	DocumentID types.ID `bson:"_id" json:"document_id"`

	// IsLocked blocks new suggestions and track changes while set. Pending
	// items stay resolvable; locking blocks new proposals, not cleanup.
	IsLocked bool `bson:"is_locked" json:"is_locked"`

	// LockedBy is the user who locked the document.
	LockedBy types.ID `bson:"locked_by,omitempty" json:"locked_by,omitempty"`

	// LockedAt is the time the document was locked.
	LockedAt *time.Time `bson:"locked_at,omitempty" json:"locked_at,omitempty"`

	// LockReason is the stated reason for the lock, if any.
	LockReason string `bson:"lock_reason,omitempty" json:"lock_reason,omitempty"`

	// TrackChangesEnabled gates new track changes.
	TrackChangesEnabled bool `bson:"track_changes_enabled" json:"track_changes_enabled"`

	// SuggestionsEnabled gates new suggestions.
	SuggestionsEnabled bool `bson:"suggestions_enabled" json:"suggestions_enabled"`

	// UpdatedAt is the time the state was last modified.
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultDocStateInfo returns the state implied when no row exists:
// unlocked, with both features enabled.
func DefaultDocStateInfo(docID types.ID) *DocStateInfo {
	return &DocStateInfo{
		DocumentID:          docID,
		TrackChangesEnabled: true,
		SuggestionsEnabled:  true,
	}
}

// ApplySettings applies the given toggle fields to this DocStateInfo.
func (i *DocStateInfo) ApplySettings(fields *types.DocSettingFields) {
	if fields.TrackChangesEnabled != nil {
		i.TrackChangesEnabled = *fields.TrackChangesEnabled
	}
	if fields.SuggestionsEnabled != nil {
		i.SuggestionsEnabled = *fields.SuggestionsEnabled
	}
}

// DeepCopy returns a deep copy of this DocStateInfo.
func (i *DocStateInfo) DeepCopy() *DocStateInfo {
	if i == nil {
		return nil
	}

	clone := *i
	if i.LockedAt != nil {
		t := *i.LockedAt
		clone.LockedAt = &t
	}
	return &clone
}
