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

// Package sessions provides the editing session business logic: presence,
// liveness, and cursor fanout.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/logging"
)

// Join creates an editing session for the user on the document. It fails
// with ErrPermissionDenied unless the user holds an active collaborator
// grant.
func Join(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	versionID types.ID,
) (*database.SessionInfo, error) {
	info, err := be.DB.FindCollaboratorInfo(ctx, docID, userID)
	if err != nil {
		if errors.Is(err, database.ErrCollaboratorNotFound) {
			return nil, collaborators.ErrPermissionDenied
		}
		return nil, err
	}
	if !info.IsValid(time.Now()) {
		return nil, collaborators.ErrPermissionDenied
	}

	session, err := be.DB.CreateSessionInfo(ctx, docID, userID, versionID)
	if err != nil {
		return nil, err
	}

	if be.Metrics != nil {
		be.Metrics.AddActiveSessions(be.Config.Hostname)
	}
	be.PublishDocEvent(ctx, events.SessionJoinedEvent, docID, userID, session.ID, session)
	return session, nil
}

// Leave removes the session and emits a departure event. It is idempotent: a
// second leave on the same id is a no-op and does not emit again.
func Leave(
	ctx context.Context,
	be *backend.Backend,
	sessionID types.ID,
) error {
	session, err := be.DB.RemoveSessionInfo(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if be.Metrics != nil {
		be.Metrics.RemoveActiveSessions(be.Config.Hostname, 1)
	}
	be.PublishDocEvent(ctx, events.SessionLeftEvent, session.DocumentID, session.UserID, session.ID, session)
	return nil
}

// Heartbeat refreshes the liveness timestamp of the session.
func Heartbeat(
	ctx context.Context,
	be *backend.Backend,
	sessionID types.ID,
) (*database.SessionInfo, error) {
	return be.DB.TouchSessionInfo(ctx, sessionID)
}

// UpdateCursor stores the session's cursor, optional selection and viewport,
// and fans the movement out to the other subscribers. Cursor events are
// advisory and lossy: they are coalesced before delivery, and fanout
// problems are logged rather than returned.
func UpdateCursor(
	ctx context.Context,
	be *backend.Backend,
	sessionID types.ID,
	cursor types.Position,
	selection *types.Range,
	viewport *types.Viewport,
) error {
	if selection != nil {
		if err := selection.Validate(); err != nil {
			return err
		}
	}

	session, err := be.DB.UpdateSessionCursor(ctx, sessionID, cursor, selection, viewport)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			logging.From(ctx).Debugf("cursor update for unknown session %s", sessionID)
			return nil
		}
		return err
	}

	// Cursor events are published under the session id so the originating
	// device is the only one excluded from delivery; the payload still
	// carries the user id.
	be.PublishDocEvent(ctx, events.CursorMovedEvent, session.DocumentID, session.ID, session.ID, session)
	return nil
}

// ListActiveEditors returns the sessions of the document that are within the
// liveness threshold.
func ListActiveEditors(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) ([]*database.SessionInfo, error) {
	cutoff := time.Now().Add(-be.Config.ParseSessionLivenessThreshold())
	return be.DB.FindActiveSessionInfos(ctx, docID, cutoff)
}
