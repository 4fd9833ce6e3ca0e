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

package housekeeping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/backend/messagebroker"
	"github.com/redline-team/redline/server/backend/pubsub"
	"github.com/redline-team/redline/server/logging"
)

// Housekeeping is the service that periodically reaps sessions whose liveness
// timestamp has fallen behind the threshold. Reaped sessions produce the same
// departure event as an explicit leave, so subscribers do not need to track
// liveness themselves.
type Housekeeping struct {
	Config *Config

	db        database.Database
	pubSub    *pubsub.PubSub
	broker    messagebroker.Broker
	threshold time.Duration

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// New creates a new housekeeping instance.
func New(
	conf *Config,
	db database.Database,
	pubSub *pubsub.PubSub,
	broker messagebroker.Broker,
	threshold time.Duration,
) (*Housekeeping, error) {
	ctx, cancelFunc := context.WithCancel(context.Background())

	return &Housekeeping{
		Config:     conf,
		db:         db,
		pubSub:     pubSub,
		broker:     broker,
		threshold:  threshold,
		ctx:        ctx,
		cancelFunc: cancelFunc,
	}, nil
}

// Start starts the housekeeping service.
func (h *Housekeeping) Start() error {
	interval, err := h.Config.ParseInterval()
	if err != nil {
		return err
	}

	go h.run(interval)
	return nil
}

// Stop stops the housekeeping service.
func (h *Housekeeping) Stop() error {
	h.cancelFunc()
	return nil
}

func (h *Housekeeping) run(interval time.Duration) {
	for {
		select {
		case <-time.After(interval):
			if count, err := h.ReapStaleSessions(h.ctx); err != nil {
				logging.From(h.ctx).Error(err)
			} else if count > 0 {
				logging.From(h.ctx).Infof("HSKP: reaped %d stale sessions", count)
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// ReapStaleSessions removes sessions that have not been seen within the
// liveness threshold and publishes a departure event for each. It returns the
// number of sessions removed.
func (h *Housekeeping) ReapStaleSessions(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-h.threshold)

	infos, err := h.db.FindStaleSessionInfos(ctx, cutoff, h.Config.CandidatesLimit)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, info := range infos {
		if _, err := h.db.RemoveSessionInfo(ctx, info.ID); err != nil {
			// Already removed by a concurrent leave.
			if errors.Is(err, database.ErrSessionNotFound) {
				continue
			}
			return count, err
		}
		count++

		payload, err := json.Marshal(info)
		if err != nil {
			return count, fmt.Errorf("marshal session %s: %w", info.ID, err)
		}
		h.pubSub.Publish(ctx, events.DocEvent{
			Type:       events.SessionLeftEvent,
			DocumentID: info.DocumentID,
			Publisher:  info.UserID,
			OccurredAt: time.Now(),
			Payload:    payload,
		})

		if err := h.broker.Produce(ctx, messagebroker.AuditEventMessage{
			DocumentID: info.DocumentID.String(),
			EventType:  events.SessionLeftEvent,
			UserID:     info.UserID.String(),
			EntityID:   info.ID.String(),
			Timestamp:  time.Now(),
		}); err != nil {
			logging.From(ctx).Error(err)
		}
	}

	return count, nil
}
