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

// SessionInfo is a record of a user actively editing a document. It is the
// only entity with a hard delete: sessions are removed on leave or when the
// liveness reaper collects them.
type SessionInfo struct {
	// ID is the unique ID of the session.
	ID types.ID `bson:"_id" json:"id"`

	// DocumentID is the document the session is attached to.
	DocumentID types.ID `bson:"document_id" json:"document_id"`

	// DocumentVersionID is the version the session is editing, if pinned.
	DocumentVersionID types.ID `bson:"document_version_id,omitempty" json:"document_version_id,omitempty"`

	// UserID is the user who joined.
	UserID types.ID `bson:"user_id" json:"user_id"`

	// Cursor is the last reported cursor position.
	Cursor types.Position `bson:"cursor" json:"cursor"`

	// Selection is the last reported selection, if any.
	Selection *types.Range `bson:"selection,omitempty" json:"selection,omitempty"`

	// Viewport is the last reported visible window, if any.
	Viewport *types.Viewport `bson:"viewport,omitempty" json:"viewport,omitempty"`

	// JoinedAt is the time the session was created.
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`

	// LastSeenAt is the liveness timestamp, refreshed by heartbeats and
	// cursor updates.
	LastSeenAt time.Time `bson:"last_seen_at" json:"last_seen_at"`
}

// DeepCopy returns a deep copy of this SessionInfo.
func (i *SessionInfo) DeepCopy() *SessionInfo {
	if i == nil {
		return nil
	}

	clone := *i
	if i.Selection != nil {
		sel := *i.Selection
		clone.Selection = &sel
	}
	if i.Viewport != nil {
		vp := *i.Viewport
		clone.Viewport = &vp
	}
	return &clone
}

// IsLive returns whether the session's liveness timestamp is at or after the
// given cutoff.
func (i *SessionInfo) IsLive(cutoff time.Time) bool {
	return !i.LastSeenAt.Before(cutoff)
}
