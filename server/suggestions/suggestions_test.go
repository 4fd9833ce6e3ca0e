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

package suggestions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/documents"
	"github.com/redline-team/redline/server/suggestions"
	"github.com/redline-team/redline/test/helper"
)

func testRange() types.Range {
	return types.Range{
		Start: types.Position{Line: 0, Column: 0, Offset: 0},
		End:   types.Position{Line: 0, Column: 5, Offset: 5},
	}
}

func createFields(docID, authorID types.ID) suggestions.CreateFields {
	return suggestions.CreateFields{
		DocumentID:    docID,
		AuthorID:      authorID,
		Range:         testRange(),
		OriginalText:  "colour",
		SuggestedText: "color",
		ChangeType:    types.ChangeTypeReplacement,
	}
}

func seedManager(t *testing.T, be *backend.Backend, docID types.ID) types.ID {
	manager := helper.NewID()
	helper.SeedCollaborator(t, be, docID, manager, &types.CollaboratorFields{
		CanManage:  helper.Bool(true),
		CanResolve: helper.Bool(true),
	})
	return manager
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()

	t.Run("create requires suggest capability test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()

		_, err := suggestions.Create(ctx, be, createFields(docID, author))
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		helper.SeedCollaborator(t, be, docID, author, nil)
		info, err := suggestions.Create(ctx, be, createFields(docID, author))
		assert.NoError(t, err)
		assert.Equal(t, types.SuggestionPending, info.Status)
	})

	t.Run("lock blocks creation but not resolution test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()
		manager := seedManager(t, be, docID)
		helper.SeedCollaborator(t, be, docID, author, nil)

		pending, err := suggestions.Create(ctx, be, createFields(docID, author))
		assert.NoError(t, err)

		_, err = documents.Lock(ctx, be, docID, manager, "review freeze")
		assert.NoError(t, err)

		_, err = suggestions.Create(ctx, be, createFields(docID, author))
		assert.ErrorIs(t, err, documents.ErrDocumentLocked)

		resolved, err := suggestions.Resolve(ctx, be, pending.ID, true, manager, "ok")
		assert.NoError(t, err)
		assert.Equal(t, types.SuggestionAccepted, resolved.Status)
	})

	t.Run("feature toggle blocks creation test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()
		manager := seedManager(t, be, docID)
		helper.SeedCollaborator(t, be, docID, author, nil)

		_, err := documents.UpdateSettings(ctx, be, docID, manager, &types.DocSettingFields{
			SuggestionsEnabled: helper.Bool(false),
		})
		assert.NoError(t, err)

		_, err = suggestions.Create(ctx, be, createFields(docID, author))
		assert.ErrorIs(t, err, documents.ErrSuggestionsDisabled)
	})

	t.Run("resolve requires resolve capability test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()
		manager := seedManager(t, be, docID)
		helper.SeedCollaborator(t, be, docID, author, nil)

		info, err := suggestions.Create(ctx, be, createFields(docID, author))
		assert.NoError(t, err)

		_, err = suggestions.Resolve(ctx, be, info.ID, false, author, "")
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		rejected, err := suggestions.Resolve(ctx, be, info.ID, false, manager, "not this one")
		assert.NoError(t, err)
		assert.Equal(t, types.SuggestionRejected, rejected.Status)
		assert.Equal(t, manager, rejected.ResolvedBy)
	})

	t.Run("no re-resolution test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()
		manager := seedManager(t, be, docID)
		helper.SeedCollaborator(t, be, docID, author, nil)

		info, err := suggestions.Create(ctx, be, createFields(docID, author))
		assert.NoError(t, err)

		_, err = suggestions.Resolve(ctx, be, info.ID, true, manager, "")
		assert.NoError(t, err)

		_, err = suggestions.Resolve(ctx, be, info.ID, false, manager, "")
		assert.ErrorIs(t, err, database.ErrAlreadyResolved)
	})

	t.Run("list filters by status test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()
		manager := seedManager(t, be, docID)
		helper.SeedCollaborator(t, be, docID, author, nil)

		first, err := suggestions.Create(ctx, be, createFields(docID, author))
		assert.NoError(t, err)
		_, err = suggestions.Create(ctx, be, createFields(docID, author))
		assert.NoError(t, err)

		_, err = suggestions.Resolve(ctx, be, first.ID, true, manager, "")
		assert.NoError(t, err)

		pending, err := suggestions.List(ctx, be, docID, types.SuggestionPending)
		assert.NoError(t, err)
		assert.Len(t, pending, 1)

		all, err := suggestions.List(ctx, be, docID, "")
		assert.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
