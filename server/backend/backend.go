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

// Package backend provides the backend implementation of Redline. This
// package is responsible for managing the database and other resources
// required to run the collaboration core.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/pkg/locker"
	"github.com/redline-team/redline/server/backend/database"
	memdb "github.com/redline-team/redline/server/backend/database/memory"
	"github.com/redline-team/redline/server/backend/database/mongo"
	"github.com/redline-team/redline/server/backend/housekeeping"
	"github.com/redline-team/redline/server/backend/messagebroker"
	"github.com/redline-team/redline/server/backend/pubsub"
	"github.com/redline-team/redline/server/logging"
	"github.com/redline-team/redline/server/profiling/prometheus"
)

// Backend manages Redline's backend such as Database and PubSub. The domain
// services hold a reference to this instance and use it to access shared
// resources.
type Backend struct {
	Config *Config

	// PubSub is used to publish/subscribe events to/from document topics.
	PubSub *pubsub.PubSub
	// Lockers is used to lock/unlock per-document mutations.
	Lockers *locker.Locker

	// Housekeeping is used to reap stale sessions in the background.
	Housekeeping *housekeeping.Housekeeping

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
	// DB is the database instance.
	DB database.Database
	// MsgBroker is the audit message producer instance.
	MsgBroker messagebroker.Broker
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	housekeepingConf *housekeeping.Config,
	metrics *prometheus.Metrics,
	kafkaConf *messagebroker.Config,
) (*Backend, error) {
	// 01. Fill in the hostname of the current machine if it is not given.
	hostname := conf.Hostname
	if hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	// 02. Create the lockers and pubsub.
	lockers := locker.New()
	pubSub := pubsub.New()

	// 03. Create the database instance. If the MongoDB configuration is given,
	// create a MongoDB instance. Otherwise, create a memory database instance.
	var db database.Database
	var err error
	if mongoConf != nil {
		db, err = mongo.Dial(mongoConf)
		if err != nil {
			return nil, err
		}
	} else {
		db, err = memdb.New()
		if err != nil {
			return nil, err
		}
	}

	// 04. Create the message broker instance.
	broker := messagebroker.Ensure(kafkaConf)

	// 05. Create the housekeeping instance for the session reaper.
	housekeeper, err := housekeeping.New(
		housekeepingConf,
		db,
		pubSub,
		broker,
		conf.ParseSessionLivenessThreshold(),
	)
	if err != nil {
		return nil, err
	}

	dbInfo := "memory"
	if mongoConf != nil {
		dbInfo = mongoConf.ConnectionURI
	}
	logging.DefaultLogger().Infof("backend created: db: %s", dbInfo)

	return &Backend{
		Config: conf,

		Lockers: lockers,
		PubSub:  pubSub,

		Housekeeping: housekeeper,

		Metrics:   metrics,
		DB:        db,
		MsgBroker: broker,
	}, nil
}

// Start starts the backend.
func (b *Backend) Start() error {
	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// PublishDocEvent encodes the given payload and publishes it to the
// document's topic, then produces an audit record for the mutation. Fanout
// failures never surface to the caller.
func (b *Backend) PublishDocEvent(
	ctx context.Context,
	eventType events.DocEventType,
	docID types.ID,
	publisher types.ID,
	entityID types.ID,
	payload any,
) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		logging.From(ctx).Errorf("marshal %s payload: %v", eventType, err)
		return
	}

	b.PubSub.Publish(ctx, events.DocEvent{
		Type:       eventType,
		DocumentID: docID,
		Publisher:  publisher,
		OccurredAt: time.Now(),
		Payload:    encoded,
	})
	if b.Metrics != nil {
		b.Metrics.AddDocEventsPublished(b.Config.Hostname, eventType, len(encoded))
	}

	if err := b.MsgBroker.Produce(ctx, messagebroker.AuditEventMessage{
		DocumentID: docID.String(),
		EventType:  eventType,
		UserID:     publisher.String(),
		EntityID:   entityID.String(),
		Timestamp:  time.Now(),
	}); err != nil {
		logging.From(ctx).Error(err)
	}
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	if err := b.Housekeeping.Stop(); err != nil {
		errs = append(errs, err)
	}

	if err := b.MsgBroker.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
