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

// Package pubsub provides the in-memory fanout of document events.
package pubsub

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/pkg/cmap"
	"github.com/redline-team/redline/pkg/errors"
	"github.com/redline-team/redline/server/logging"
)

var (
	// ErrTooManySubscribers is returned when the subscription limit is exceeded.
	ErrTooManySubscribers = errors.ResourceExhausted("subscription limit exceeded").WithCode("ErrTooManySubscribers")
)

// PubSub is the memory implementation of PubSub, used for single server.
type PubSub struct {
	docSubsMap *cmap.Map[types.ID, *DocSubscriptions]
}

// New creates an instance of PubSub.
func New() *PubSub {
	return &PubSub{
		docSubsMap: cmap.New[types.ID, *DocSubscriptions](),
	}
}

// Subscribe subscribes the given user to events of the given document.
func (m *PubSub) Subscribe(
	ctx context.Context,
	subscriber types.ID,
	docID types.ID,
	limit int,
) (*DocSubscription, error) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) Start`, docID, subscriber)
	}

	// The limit check and the insert run inside one Upsert callback to keep
	// the count accurate under concurrent subscribes. A nil newSub afterwards
	// means the limit was hit.
	var newSub *DocSubscription
	_ = m.docSubsMap.Upsert(docID, func(subs *DocSubscriptions, exists bool) *DocSubscriptions {
		if !exists {
			subs = newSubscriptions(docID)
		}

		if limit > 0 && subs.Len() >= limit {
			return subs
		}

		newSub = NewDocSubscription(subscriber)
		subs.Set(newSub)
		return subs
	})

	if newSub == nil {
		return nil, fmt.Errorf(
			"%d subscribers allowed per document: %w",
			limit,
			ErrTooManySubscribers,
		)
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) End`, docID, subscriber)
	}
	return newSub, nil
}

// Unsubscribe unsubscribes the given subscription from the document.
func (m *PubSub) Unsubscribe(
	ctx context.Context,
	docID types.ID,
	sub *DocSubscription,
) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) Start`, docID, sub.Subscriber())
	}

	sub.Close()

	if subs, ok := m.docSubsMap.Get(docID); ok {
		subs.Delete(sub.ID())

		m.docSubsMap.Delete(docID, func(subs *DocSubscriptions, exists bool) bool {
			if !exists || 0 < subs.Len() {
				return false
			}

			subs.Close()
			return true
		})
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) End`, docID, sub.Subscriber())
	}
}

// Publish publishes the given event to the subscribers of its document.
func (m *PubSub) Publish(ctx context.Context, event events.DocEvent) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Publish(%s,%s) Start`, event.DocumentID, event.Publisher)
	}

	if subs, ok := m.docSubsMap.Get(event.DocumentID); ok {
		subs.Publish(event)
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Publish(%s,%s) End`, event.DocumentID, event.Publisher)
	}
}

// SubscriberIDs returns the subscribers of the given document.
func (m *PubSub) SubscriberIDs(docID types.ID) []types.ID {
	subs, ok := m.docSubsMap.Get(docID)
	if !ok {
		return nil
	}

	var ids []types.ID
	for _, sub := range subs.Values() {
		ids = append(ids, sub.Subscriber())
	}
	return ids
}
