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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/server/backend/database/mongo"
)

func TestConfig(t *testing.T) {
	scenarios := []*struct {
		config   *mongo.Config
		expected bool
	}{
		{config: &mongo.Config{ConnectionTimeout: "5s", PingTimeout: "5s"}, expected: true},
		{config: &mongo.Config{ConnectionTimeout: "5s", PingTimeout: "5"}, expected: false},
		{config: &mongo.Config{ConnectionTimeout: "", PingTimeout: "5s"}, expected: false},
		{config: &mongo.Config{ConnectionTimeout: "0.5s", PingTimeout: "0.5s"}, expected: true},
	}
	for _, scenario := range scenarios {
		if scenario.expected {
			assert.NoError(t, scenario.config.Validate())
		} else {
			assert.Error(t, scenario.config.Validate())
		}
	}
}
