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

// SuggestionInfo is a proposed edit that requires an explicit accept or
// reject decision before it affects canonical content. It transitions from
// pending exactly once; the stored decision never changes.
type SuggestionInfo struct {
	// ID is the unique ID of the suggestion.
	ID types.ID `bson:"_id" json:"id"`

	// DocumentID is the document the suggestion targets.
	DocumentID types.ID `bson:"document_id" json:"document_id"`

	// DocumentVersionID is the version the anchor refers to, if pinned.
	DocumentVersionID types.ID `bson:"document_version_id,omitempty" json:"document_version_id,omitempty"`

	// AuthorID is the user who proposed the edit.
	AuthorID types.ID `bson:"author_id" json:"author_id"`

	// Range is the anchor of the proposed edit.
	Range types.Range `bson:"range" json:"range"`

	// OriginalText is the text currently at the anchor.
	OriginalText string `bson:"original_text" json:"original_text"`

	// SuggestedText is the proposed replacement.
	SuggestedText string `bson:"suggested_text" json:"suggested_text"`

	// ChangeType classifies the proposed edit.
	ChangeType types.ChangeType `bson:"change_type" json:"change_type"`

	// Comment is the author's note on the proposal, if any.
	Comment string `bson:"comment,omitempty" json:"comment,omitempty"`

	// Status is pending until a decision is recorded.
	Status types.SuggestionStatus `bson:"status" json:"status"`

	// ResolvedBy is the user who recorded the decision.
	ResolvedBy types.ID `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`

	// ResolvedAt is the time the decision was recorded.
	ResolvedAt *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`

	// ResolutionComment is the reviewer's note on the decision, if any.
	ResolutionComment string `bson:"resolution_comment,omitempty" json:"resolution_comment,omitempty"`

	// CreatedAt is the time the suggestion was created.
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// DeepCopy returns a deep copy of this SuggestionInfo.
func (i *SuggestionInfo) DeepCopy() *SuggestionInfo {
	if i == nil {
		return nil
	}

	clone := *i
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		clone.ResolvedAt = &t
	}
	return &clone
}

// IsPending returns whether no decision has been recorded yet.
func (i *SuggestionInfo) IsPending() bool {
	return i.Status == types.SuggestionPending
}
