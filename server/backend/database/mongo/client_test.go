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

package mongo_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/server/backend/database/mongo"
	"github.com/redline-team/redline/server/backend/database/testcases"
)

func setupTestClient(t *testing.T) *mongo.Client {
	config := &mongo.Config{
		ConnectionTimeout: "5s",
		ConnectionURI:     "mongodb://localhost:27017",
		RedlineDatabase:   fmt.Sprintf("test-redline-%d", time.Now().UnixNano()),
		PingTimeout:       "5s",
	}
	assert.NoError(t, config.Validate())

	cli, err := mongo.Dial(config)
	if err != nil {
		t.Skipf("mongodb is not available: %v", err)
	}

	return cli
}

func TestClient(t *testing.T) {
	cli := setupTestClient(t)
	defer func() {
		assert.NoError(t, cli.Close())
	}()

	t.Run("RunSession test", func(t *testing.T) {
		testcases.RunSessionTest(t, cli)
	})

	t.Run("RunCollaborator test", func(t *testing.T) {
		testcases.RunCollaboratorTest(t, cli)
	})

	t.Run("RunSuggestion test", func(t *testing.T) {
		testcases.RunSuggestionTest(t, cli)
	})

	t.Run("RunChange test", func(t *testing.T) {
		testcases.RunChangeTest(t, cli)
	})

	t.Run("RunComment test", func(t *testing.T) {
		testcases.RunCommentTest(t, cli)
	})

	t.Run("RunDocState test", func(t *testing.T) {
		testcases.RunDocStateTest(t, cli)
	})
}
