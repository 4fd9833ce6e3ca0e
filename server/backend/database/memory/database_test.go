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

package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/server/backend/database/memory"
	"github.com/redline-team/redline/server/backend/database/testcases"
)

func TestDB(t *testing.T) {
	db, err := memory.New()
	assert.NoError(t, err)

	t.Run("RunSession test", func(t *testing.T) {
		testcases.RunSessionTest(t, db)
	})

	t.Run("RunCollaborator test", func(t *testing.T) {
		testcases.RunCollaboratorTest(t, db)
	})

	t.Run("RunSuggestion test", func(t *testing.T) {
		testcases.RunSuggestionTest(t, db)
	})

	t.Run("RunChange test", func(t *testing.T) {
		testcases.RunChangeTest(t, db)
	})

	t.Run("RunComment test", func(t *testing.T) {
		testcases.RunCommentTest(t, db)
	})

	t.Run("RunDocState test", func(t *testing.T) {
		testcases.RunDocStateTest(t, db)
	})

	assert.NoError(t, db.Close())
}
