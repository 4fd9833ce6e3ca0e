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

package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/server/backend/pubsub"
)

var (
	docID   = types.ID("000000000000000000000010")
	userA   = types.ID("000000000000000000000001")
	userB   = types.ID("000000000000000000000002")
	timeout = time.Second
)

func TestPubSub(t *testing.T) {
	t.Run("publish and filter test", func(t *testing.T) {
		ctx := context.Background()
		ps := pubsub.New()

		subA, err := ps.Subscribe(ctx, userA, docID, 0)
		assert.NoError(t, err)
		defer ps.Unsubscribe(ctx, docID, subA)
		subB, err := ps.Subscribe(ctx, userB, docID, 0)
		assert.NoError(t, err)
		defer ps.Unsubscribe(ctx, docID, subB)

		assert.Len(t, ps.SubscriberIDs(docID), 2)

		ps.Publish(ctx, events.DocEvent{
			Type:       events.SuggestionCreatedEvent,
			DocumentID: docID,
			Publisher:  userA,
			OccurredAt: time.Now(),
		})

		// The publisher is filtered out; the other subscriber receives it.
		select {
		case event := <-subB.Events():
			assert.Equal(t, events.SuggestionCreatedEvent, event.Type)
			assert.Equal(t, userA, event.Publisher)
		case <-time.After(timeout):
			assert.Fail(t, "timeout waiting for event")
		}

		select {
		case event := <-subA.Events():
			assert.Fail(t, "publisher received own event", event)
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("cursor coalescing test", func(t *testing.T) {
		ctx := context.Background()
		ps := pubsub.New()

		subA, err := ps.Subscribe(ctx, userA, docID, 0)
		assert.NoError(t, err)
		defer ps.Unsubscribe(ctx, docID, subA)
		subB, err := ps.Subscribe(ctx, userB, docID, 0)
		assert.NoError(t, err)
		defer ps.Unsubscribe(ctx, docID, subB)

		// Burst of cursor moves from the same publisher inside one batch
		// window collapses to the latest one.
		for i := 0; i < 5; i++ {
			payload, err := json.Marshal(types.Position{Line: i, Column: 0, Offset: i})
			assert.NoError(t, err)

			ps.Publish(ctx, events.DocEvent{
				Type:       events.CursorMovedEvent,
				DocumentID: docID,
				Publisher:  userA,
				OccurredAt: time.Now(),
				Payload:    payload,
			})
		}

		select {
		case event := <-subB.Events():
			assert.Equal(t, events.CursorMovedEvent, event.Type)

			var pos types.Position
			assert.NoError(t, json.Unmarshal(event.Payload, &pos))
			assert.Equal(t, 4, pos.Offset)
		case <-time.After(timeout):
			assert.Fail(t, "timeout waiting for event")
		}

		select {
		case event, ok := <-subB.Events():
			if ok {
				assert.Fail(t, "expected a single coalesced event", event)
			}
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("subscription limit test", func(t *testing.T) {
		ctx := context.Background()
		ps := pubsub.New()

		sub, err := ps.Subscribe(ctx, userA, docID, 1)
		assert.NoError(t, err)
		defer ps.Unsubscribe(ctx, docID, sub)

		_, err = ps.Subscribe(ctx, userB, docID, 1)
		assert.ErrorIs(t, err, pubsub.ErrTooManySubscribers)
	})
}
