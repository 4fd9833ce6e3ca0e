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

package types

import (
	"errors"
	"time"
)

// ErrEmptyFields is returned when an update carries no fields to apply.
var ErrEmptyFields = errors.New("no fields to update")

// CollaboratorFields is the set of grant fields that can be supplied when
// adding or updating a collaborator. Nil pointers mean "leave unchanged"
// (or the zero value on create).
type CollaboratorFields struct {
	CanEdit    *bool `json:"can_edit,omitempty"`
	CanSuggest *bool `json:"can_suggest,omitempty"`
	CanComment *bool `json:"can_comment,omitempty"`
	CanResolve *bool `json:"can_resolve,omitempty"`
	CanManage  *bool `json:"can_manage,omitempty"`

	// ExpiresAt revokes the grant after the given time. A nil value leaves
	// the expiry unchanged.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Validate returns an error if the update carries nothing to apply.
func (f *CollaboratorFields) Validate() error {
	if f.CanEdit == nil && f.CanSuggest == nil && f.CanComment == nil &&
		f.CanResolve == nil && f.CanManage == nil && f.ExpiresAt == nil {
		return ErrEmptyFields
	}
	return nil
}

// DocSettingFields is the set of collaborative-state toggles that can be
// updated independently. Nil pointers mean "leave unchanged".
type DocSettingFields struct {
	TrackChangesEnabled *bool `json:"track_changes_enabled,omitempty"`
	SuggestionsEnabled  *bool `json:"suggestions_enabled,omitempty"`
}

// Validate returns an error if the update carries nothing to apply.
func (f *DocSettingFields) Validate() error {
	if f.TrackChangesEnabled == nil && f.SuggestionsEnabled == nil {
		return ErrEmptyFields
	}
	return nil
}
