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

// Package events defines the events fanned out to the active sessions of a
// document. Every mutation in the collaboration core ends by publishing one
// of these events on the document's topic.
package events

import (
	"encoding/json"
	"time"

	"github.com/redline-team/redline/api/types"
)

// DocEventType represents the type of a DocEvent.
type DocEventType string

const (
	// SessionJoinedEvent occurs when a user joins a document.
	SessionJoinedEvent DocEventType = "session.joined"

	// SessionLeftEvent occurs when a session is left or reaped.
	SessionLeftEvent DocEventType = "session.left"

	// CursorMovedEvent occurs when a session's cursor or viewport moves.
	// These events are coalesced before delivery.
	CursorMovedEvent DocEventType = "session.cursor"

	// SuggestionCreatedEvent occurs when a suggestion is created.
	SuggestionCreatedEvent DocEventType = "suggestion.created"

	// SuggestionResolvedEvent occurs when a suggestion is accepted or rejected.
	SuggestionResolvedEvent DocEventType = "suggestion.resolved"

	// ChangeCreatedEvent occurs when a track change is recorded.
	ChangeCreatedEvent DocEventType = "change.created"

	// ChangeResolvedEvent occurs when track changes are accepted or rejected,
	// individually, by group, or document-wide.
	ChangeResolvedEvent DocEventType = "change.resolved"

	// CommentCreatedEvent occurs when an inline comment is created.
	CommentCreatedEvent DocEventType = "comment.created"

	// CommentUpdatedEvent occurs when a comment is edited, resolved,
	// reopened, or soft-deleted.
	CommentUpdatedEvent DocEventType = "comment.updated"

	// StateChangedEvent occurs when the document is locked, unlocked, or its
	// collaboration settings change.
	StateChangedEvent DocEventType = "state.changed"

	// CollaboratorChangedEvent occurs when a collaborator grant is added,
	// updated, or revoked.
	CollaboratorChangedEvent DocEventType = "collaborator.changed"
)

// DocEvent is an event scoped to a single document. Subscribers reconcile
// their local view from the payload rather than applying it as a delta, so
// duplicate or missed events are tolerated.
type DocEvent struct {
	// Type is the type of the event.
	Type DocEventType `json:"type"`

	// DocumentID is the document the event is scoped to.
	DocumentID types.ID `json:"document_id"`

	// Publisher is the user whose call produced the event.
	Publisher types.ID `json:"publisher"`

	// OccurredAt is the server time the mutation committed.
	OccurredAt time.Time `json:"occurred_at"`

	// Payload is the JSON-encoded entity the event refers to.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PayloadLen returns the size of the payload.
func (e *DocEvent) PayloadLen() int {
	return len(e.Payload)
}
