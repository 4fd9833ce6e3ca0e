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

// ChangeInfo is one entry of the track-change ledger: an author-attributed
// edit that is pending until accepted or rejected. Changes sharing a
// GroupID are resolved atomically as a unit, replayed in SequenceNumber
// order. Sequence numbers are assigned by the storage layer at insert time,
// never by clients.
type ChangeInfo struct {
	// ID is the unique ID of the change.
	ID types.ID `bson:"_id" json:"id"`

	// DocumentID is the document the change targets.
	DocumentID types.ID `bson:"document_id" json:"document_id"`

	// DocumentVersionID is the version the anchor refers to, if pinned.
	DocumentVersionID types.ID `bson:"document_version_id,omitempty" json:"document_version_id,omitempty"`

	// AuthorID is the user who made the edit.
	AuthorID types.ID `bson:"author_id" json:"author_id"`

	// SessionID is the editing session the change came from, if known.
	SessionID types.ID `bson:"session_id,omitempty" json:"session_id,omitempty"`

	// Range is the anchor of the edit.
	Range types.Range `bson:"range" json:"range"`

	// OriginalText is the text the edit replaced, if any.
	OriginalText string `bson:"original_text,omitempty" json:"original_text,omitempty"`

	// NewText is the text the edit introduced, if any.
	NewText string `bson:"new_text,omitempty" json:"new_text,omitempty"`

	// ChangeType classifies the edit.
	ChangeType types.ChangeType `bson:"change_type" json:"change_type"`

	// GroupID groups changes resolved together as one semantic edit.
	GroupID string `bson:"group_id,omitempty" json:"group_id,omitempty"`

	// SequenceNumber orders changes within the document for stable replay.
	SequenceNumber int64 `bson:"sequence_number" json:"sequence_number"`

	// IsAccepted is nil while pending, then records the decision.
	IsAccepted *bool `bson:"is_accepted,omitempty" json:"is_accepted,omitempty"`

	// AcceptedBy is the user who recorded the decision.
	AcceptedBy types.ID `bson:"accepted_by,omitempty" json:"accepted_by,omitempty"`

	// AcceptedAt is the time the decision was recorded. Members of a group
	// resolved together share the same timestamp.
	AcceptedAt *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`

	// CreatedAt is the time the change was recorded.
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// DeepCopy returns a deep copy of this ChangeInfo.
func (i *ChangeInfo) DeepCopy() *ChangeInfo {
	if i == nil {
		return nil
	}

	clone := *i
	if i.IsAccepted != nil {
		b := *i.IsAccepted
		clone.IsAccepted = &b
	}
	if i.AcceptedAt != nil {
		t := *i.AcceptedAt
		clone.AcceptedAt = &t
	}
	return &clone
}

// IsPending returns whether no decision has been recorded yet.
func (i *ChangeInfo) IsPending() bool {
	return i.IsAccepted == nil
}
