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

package pubsub

import (
	gotime "time"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
)

// batchWindow bounds the fanout rate of high-frequency events such as
// cursor moves.
const batchWindow = 50 * gotime.Millisecond

// DocSubscription is a subscription to document events.
type DocSubscription = Subscription[events.DocEvent]

// DocSubscriptions is a collection of document subscriptions.
type DocSubscriptions = Subscriptions[events.DocEvent]

// NewDocSubscription creates a new instance of DocSubscription.
func NewDocSubscription(subscriber types.ID) *DocSubscription {
	return NewSubscription[events.DocEvent](subscriber, 16)
}

// newSubscriptions creates a new DocSubscriptions for the given document.
func newSubscriptions(docID types.ID) *DocSubscriptions {
	return NewSubscriptions[events.DocEvent](
		docID.String(),
		func(subs *Subscriptions[events.DocEvent]) *BatchPublisher[events.DocEvent] {
			return NewBatchPublisher(subs, batchWindow, BatchPublisherConfig[events.DocEvent]{
				Filter: func(subscriber types.ID, event events.DocEvent) bool {
					// Skip echoing events back to their publisher. Watch
					// streams subscribe under their session id, so only the
					// originating device is excluded and a user's other
					// sessions still hear what that user publishes.
					return subscriber == event.Publisher
				},
				OnEnqueue: func(evts []events.DocEvent, newEvent events.DocEvent) ([]events.DocEvent, bool) {
					// Only the latest cursor position of a publisher matters,
					// so a still-queued cursor event from the same publisher
					// is overwritten in place.
					if newEvent.Type == events.CursorMovedEvent {
						for i, evt := range evts {
							if evt.Type == events.CursorMovedEvent && evt.Publisher == newEvent.Publisher {
								evts[i] = newEvent
								return evts, false
							}
						}
					}
					return append(evts, newEvent), true
				},
			})
		},
	)
}
