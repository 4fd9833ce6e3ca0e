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

package housekeeping_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/backend/database/memory"
	"github.com/redline-team/redline/server/backend/housekeeping"
	"github.com/redline-team/redline/server/backend/messagebroker"
	"github.com/redline-team/redline/server/backend/pubsub"
)

func setupHousekeeping(t *testing.T, threshold time.Duration) (*housekeeping.Housekeeping, database.Database, *pubsub.PubSub) {
	t.Helper()

	db, err := memory.New()
	assert.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	pubSub := pubsub.New()
	h, err := housekeeping.New(
		&housekeeping.Config{Interval: "1m", CandidatesLimit: 100},
		db,
		pubSub,
		messagebroker.Ensure(nil),
		threshold,
	)
	assert.NoError(t, err)

	return h, db, pubSub
}

func newID() types.ID {
	return types.ID(bson.NewObjectID().Hex())
}

func TestHousekeeping(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh sessions survive a run test", func(t *testing.T) {
		h, db, _ := setupHousekeeping(t, time.Hour)

		info, err := db.CreateSessionInfo(ctx, newID(), newID(), newID())
		assert.NoError(t, err)

		count, err := h.ReapStaleSessions(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)

		_, err = db.FindSessionInfo(ctx, info.ID)
		assert.NoError(t, err)
	})

	t.Run("stale sessions are reaped with a departure event test", func(t *testing.T) {
		// A negative threshold puts the cutoff in the future, so every
		// session counts as stale without sleeping in the test.
		h, db, pubSub := setupHousekeeping(t, -time.Hour)

		docID := bson.NewObjectID().Hex()
		userID := newID()
		info, err := db.CreateSessionInfo(ctx, types.ID(docID), userID, newID())
		assert.NoError(t, err)

		watcherID := newID()
		sub, err := pubSub.Subscribe(ctx, watcherID, types.ID(docID), 0)
		assert.NoError(t, err)
		defer pubSub.Unsubscribe(ctx, types.ID(docID), sub)

		count, err := h.ReapStaleSessions(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)

		_, err = db.FindSessionInfo(ctx, info.ID)
		assert.ErrorIs(t, err, database.ErrSessionNotFound)

		select {
		case event := <-sub.Events():
			assert.Equal(t, events.SessionLeftEvent, event.Type)
			assert.Equal(t, userID, event.Publisher)
		case <-time.After(time.Second):
			assert.Fail(t, "timeout waiting for departure event")
		}
	})

	t.Run("reap honors the candidates limit test", func(t *testing.T) {
		h, db, _ := setupHousekeeping(t, -time.Hour)
		h.Config.CandidatesLimit = 2

		for i := 0; i < 3; i++ {
			_, err := db.CreateSessionInfo(ctx, newID(), newID(), newID())
			assert.NoError(t, err)
		}

		count, err := h.ReapStaleSessions(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = h.ReapStaleSessions(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
