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

// Package helper provides helpers for testing.
package helper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/backend/housekeeping"
)

// TestConfig returns a backend configuration for testing.
func TestConfig() *backend.Config {
	return &backend.Config{
		SecretKey:                  "test-secret",
		AuthTokenDuration:          "24h",
		SessionLivenessThreshold:   "60s",
		SubscriberLimitPerDocument: 0,
		Hostname:                   "test",
	}
}

// TestBackend creates a memory-backed backend instance for testing and
// registers its shutdown as cleanup.
func TestBackend(t *testing.T) *backend.Backend {
	be, err := backend.New(
		TestConfig(),
		nil,
		&housekeeping.Config{Interval: "1m", CandidatesLimit: 100},
		nil,
		nil,
	)
	assert.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, be.Shutdown())
	})
	return be
}

// NewID returns a fresh unique id.
func NewID() types.ID {
	return types.ID(bson.NewObjectID().Hex())
}

// SeedCollaborator creates a grant directly in storage, bypassing the
// permission check that guards the service-level invite.
func SeedCollaborator(
	t *testing.T,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	fields *types.CollaboratorFields,
) *database.CollaboratorInfo {
	info, err := be.DB.CreateCollaboratorInfo(
		context.Background(), docID, userID, userID, fields,
	)
	assert.NoError(t, err)
	return info
}

// Bool returns a pointer to the given bool for building field updates.
func Bool(v bool) *bool {
	return &v
}
