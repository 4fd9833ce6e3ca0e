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

package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/sessions"
	"github.com/redline-team/redline/test/helper"
)

func TestSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("join requires an active grant test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, userID := helper.NewID(), helper.NewID()

		_, err := sessions.Join(ctx, be, docID, userID, "")
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		helper.SeedCollaborator(t, be, docID, userID, nil)
		session, err := sessions.Join(ctx, be, docID, userID, "")
		assert.NoError(t, err)
		assert.Equal(t, docID, session.DocumentID)
		assert.Equal(t, userID, session.UserID)
	})

	t.Run("join with expired grant test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, userID := helper.NewID(), helper.NewID()

		expired := time.Now().Add(-time.Hour)
		helper.SeedCollaborator(t, be, docID, userID, &types.CollaboratorFields{
			ExpiresAt: &expired,
		})

		_, err := sessions.Join(ctx, be, docID, userID, "")
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)
	})

	t.Run("leave is idempotent test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, userID := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, userID, nil)

		session, err := sessions.Join(ctx, be, docID, userID, "")
		assert.NoError(t, err)

		assert.NoError(t, sessions.Leave(ctx, be, session.ID))
		assert.NoError(t, sessions.Leave(ctx, be, session.ID))

		editors, err := sessions.ListActiveEditors(ctx, be, docID)
		assert.NoError(t, err)
		assert.Len(t, editors, 0)
	})

	t.Run("join emits an event to other subscribers test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, userID := helper.NewID(), helper.NewID()
		watcherID := helper.NewID()
		helper.SeedCollaborator(t, be, docID, userID, nil)

		sub, err := be.PubSub.Subscribe(ctx, watcherID, docID, 0)
		assert.NoError(t, err)
		defer be.PubSub.Unsubscribe(ctx, docID, sub)

		session, err := sessions.Join(ctx, be, docID, userID, "")
		assert.NoError(t, err)

		select {
		case event := <-sub.Events():
			assert.Equal(t, events.SessionJoinedEvent, event.Type)
			assert.Equal(t, userID, event.Publisher)
		case <-time.After(time.Second):
			assert.Fail(t, "timeout waiting for join event")
		}

		assert.NoError(t, sessions.Leave(ctx, be, session.ID))
		select {
		case event := <-sub.Events():
			assert.Equal(t, events.SessionLeftEvent, event.Type)
		case <-time.After(time.Second):
			assert.Fail(t, "timeout waiting for leave event")
		}
	})

	t.Run("cursor update refreshes liveness test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, userID := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, userID, nil)

		session, err := sessions.Join(ctx, be, docID, userID, "")
		assert.NoError(t, err)

		err = sessions.UpdateCursor(ctx, be, session.ID, types.Position{
			Line: 3, Column: 1, Offset: 42,
		}, nil, nil)
		assert.NoError(t, err)

		refreshed, err := sessions.Heartbeat(ctx, be, session.ID)
		assert.NoError(t, err)
		assert.False(t, refreshed.LastSeenAt.Before(session.LastSeenAt))
	})

	t.Run("cursor events reach the publisher's other devices test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, userID := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, userID, nil)

		// Two sessions of the same user, each subscribed under its own
		// session id as the watch stream does.
		first, err := sessions.Join(ctx, be, docID, userID, "")
		assert.NoError(t, err)
		second, err := sessions.Join(ctx, be, docID, userID, "")
		assert.NoError(t, err)

		firstSub, err := be.PubSub.Subscribe(ctx, first.ID, docID, 0)
		assert.NoError(t, err)
		defer be.PubSub.Unsubscribe(ctx, docID, firstSub)
		secondSub, err := be.PubSub.Subscribe(ctx, second.ID, docID, 0)
		assert.NoError(t, err)
		defer be.PubSub.Unsubscribe(ctx, docID, secondSub)

		err = sessions.UpdateCursor(ctx, be, first.ID, types.Position{
			Line: 1, Column: 2, Offset: 10,
		}, nil, nil)
		assert.NoError(t, err)

		select {
		case event := <-secondSub.Events():
			assert.Equal(t, events.CursorMovedEvent, event.Type)
			assert.Equal(t, first.ID, event.Publisher)
		case <-time.After(time.Second):
			assert.Fail(t, "timeout waiting for cursor event on the second device")
		}

		// The originating session is the only one excluded.
		select {
		case event := <-firstSub.Events():
			assert.Failf(t, "unexpected echo", "got %s", event.Type)
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("cursor update for unknown session does not fail test", func(t *testing.T) {
		be := helper.TestBackend(t)

		err := sessions.UpdateCursor(ctx, be, helper.NewID(), types.Position{}, nil, nil)
		assert.NoError(t, err)
	})
}
