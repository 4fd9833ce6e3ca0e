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

package documents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/changes"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/comments"
	"github.com/redline-team/redline/server/documents"
	"github.com/redline-team/redline/server/sessions"
	"github.com/redline-team/redline/server/suggestions"
	"github.com/redline-team/redline/test/helper"
)

func seedManager(t *testing.T, be *backend.Backend, docID types.ID) types.ID {
	manager := helper.NewID()
	helper.SeedCollaborator(t, be, docID, manager, &types.CollaboratorFields{
		CanManage: helper.Bool(true),
	})
	return manager
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("state defaults test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()

		state, err := documents.FindState(ctx, be, docID)
		assert.NoError(t, err)
		assert.False(t, state.IsLocked)
		assert.True(t, state.TrackChangesEnabled)
		assert.True(t, state.SuggestionsEnabled)
	})

	t.Run("lock requires manage capability test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		manager := seedManager(t, be, docID)
		member := helper.NewID()
		helper.SeedCollaborator(t, be, docID, member, nil)

		_, err := documents.Lock(ctx, be, docID, member, "freeze")
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		state, err := documents.Lock(ctx, be, docID, manager, "final review")
		assert.NoError(t, err)
		assert.True(t, state.IsLocked)
		assert.Equal(t, manager, state.LockedBy)
		assert.Equal(t, "final review", state.LockReason)
		assert.NotNil(t, state.LockedAt)

		state, err = documents.Unlock(ctx, be, docID, manager)
		assert.NoError(t, err)
		assert.False(t, state.IsLocked)
		assert.Empty(t, state.LockedBy)
		assert.Nil(t, state.LockedAt)
	})

	t.Run("settings toggles are independent test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		manager := seedManager(t, be, docID)

		state, err := documents.UpdateSettings(ctx, be, docID, manager, &types.DocSettingFields{
			TrackChangesEnabled: helper.Bool(false),
		})
		assert.NoError(t, err)
		assert.False(t, state.TrackChangesEnabled)
		assert.True(t, state.SuggestionsEnabled)

		state, err = documents.UpdateSettings(ctx, be, docID, manager, &types.DocSettingFields{
			SuggestionsEnabled: helper.Bool(false),
		})
		assert.NoError(t, err)
		assert.False(t, state.TrackChangesEnabled)
		assert.False(t, state.SuggestionsEnabled)
	})

	t.Run("summary aggregates review state test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		author := helper.NewID()
		helper.SeedCollaborator(t, be, docID, author, &types.CollaboratorFields{
			CanEdit: helper.Bool(true),
		})

		testRange := types.Range{
			Start: types.Position{Line: 0, Column: 0, Offset: 0},
			End:   types.Position{Line: 0, Column: 3, Offset: 3},
		}

		_, err := suggestions.Create(ctx, be, suggestions.CreateFields{
			DocumentID:    docID,
			AuthorID:      author,
			Range:         testRange,
			OriginalText:  "foo",
			SuggestedText: "bar",
			ChangeType:    types.ChangeTypeReplacement,
		})
		assert.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err = changes.Create(ctx, be, changes.CreateFields{
				DocumentID: docID,
				AuthorID:   author,
				Range:      testRange,
				NewText:    "baz",
				ChangeType: types.ChangeTypeInsertion,
			})
			assert.NoError(t, err)
		}

		_, err = comments.Create(ctx, be, comments.CreateFields{
			DocumentID:      docID,
			AuthorID:        author,
			Anchor:          testRange,
			HighlightedText: "foo",
			Content:         "why?",
		})
		assert.NoError(t, err)

		_, err = sessions.Join(ctx, be, docID, author, "")
		assert.NoError(t, err)

		summary, err := documents.Summary(ctx, be, docID)
		assert.NoError(t, err)
		assert.Equal(t, 1, summary.PendingSuggestions)
		assert.Equal(t, 2, summary.PendingChanges)
		assert.Equal(t, 1, summary.OpenComments)
		assert.Equal(t, 1, summary.ActiveEditors)
		assert.False(t, summary.IsLocked)
	})
}
