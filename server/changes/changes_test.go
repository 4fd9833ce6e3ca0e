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

package changes_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/changes"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/documents"
	"github.com/redline-team/redline/test/helper"
)

var errStorage = errors.New("storage failure")

// failingDB delegates to the real database but fails every bulk resolution,
// standing in for a storage layer that dies mid-update.
type failingDB struct {
	database.Database
}

func (f *failingDB) ResolveChangeGroup(
	_ context.Context, _ types.ID, _ string, _ bool, _ types.ID,
) (int, error) {
	return 0, errStorage
}

func (f *failingDB) ResolveAllChanges(
	_ context.Context, _ types.ID, _ bool, _ types.ID,
) (int, error) {
	return 0, errStorage
}

func createFields(docID, authorID types.ID, groupID string) changes.CreateFields {
	return changes.CreateFields{
		DocumentID: docID,
		AuthorID:   authorID,
		Range: types.Range{
			Start: types.Position{Line: 1, Column: 0, Offset: 10},
			End:   types.Position{Line: 1, Column: 4, Offset: 14},
		},
		OriginalText: "gray",
		NewText:      "grey",
		ChangeType:   types.ChangeTypeReplacement,
		GroupID:      groupID,
	}
}

func seedAuthor(t *testing.T, be *backend.Backend, docID types.ID) types.ID {
	author := helper.NewID()
	helper.SeedCollaborator(t, be, docID, author, &types.CollaboratorFields{
		CanEdit: helper.Bool(true),
	})
	return author
}

func seedReviewer(t *testing.T, be *backend.Backend, docID types.ID) types.ID {
	reviewer := helper.NewID()
	helper.SeedCollaborator(t, be, docID, reviewer, &types.CollaboratorFields{
		CanManage:  helper.Bool(true),
		CanResolve: helper.Bool(true),
	})
	return reviewer
}

func TestChanges(t *testing.T) {
	ctx := context.Background()

	t.Run("create requires edit capability test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, suggester := helper.NewID(), helper.NewID()

		// The default grant carries suggest and comment; a recorded edit
		// needs more than that.
		helper.SeedCollaborator(t, be, docID, suggester, nil)

		_, err := changes.Create(ctx, be, createFields(docID, suggester, ""))
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		author := seedAuthor(t, be, docID)
		_, err = changes.Create(ctx, be, createFields(docID, author, ""))
		assert.NoError(t, err)
	})

	t.Run("sequence numbers are assigned server-side test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		author := seedAuthor(t, be, docID)

		first, err := changes.Create(ctx, be, createFields(docID, author, ""))
		assert.NoError(t, err)
		second, err := changes.Create(ctx, be, createFields(docID, author, ""))
		assert.NoError(t, err)

		assert.Equal(t, int64(1), first.SequenceNumber)
		assert.Equal(t, int64(2), second.SequenceNumber)
	})

	t.Run("feature toggle blocks recording test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		reviewer := seedReviewer(t, be, docID)
		author := seedAuthor(t, be, docID)

		_, err := documents.UpdateSettings(ctx, be, docID, reviewer, &types.DocSettingFields{
			TrackChangesEnabled: helper.Bool(false),
		})
		assert.NoError(t, err)

		_, err = changes.Create(ctx, be, createFields(docID, author, ""))
		assert.ErrorIs(t, err, documents.ErrTrackChangesDisabled)
	})

	t.Run("resolve one test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		reviewer := seedReviewer(t, be, docID)
		author := seedAuthor(t, be, docID)

		info, err := changes.Create(ctx, be, createFields(docID, author, ""))
		assert.NoError(t, err)

		_, err = changes.ResolveOne(ctx, be, info.ID, true, author)
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		resolved, err := changes.ResolveOne(ctx, be, info.ID, true, reviewer)
		assert.NoError(t, err)
		assert.NotNil(t, resolved.IsAccepted)
		assert.True(t, *resolved.IsAccepted)
		assert.Equal(t, reviewer, resolved.AcceptedBy)
	})

	t.Run("resolve group only touches pending members test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		reviewer := seedReviewer(t, be, docID)
		author := seedAuthor(t, be, docID)

		first, err := changes.Create(ctx, be, createFields(docID, author, "g1"))
		assert.NoError(t, err)
		_, err = changes.Create(ctx, be, createFields(docID, author, "g1"))
		assert.NoError(t, err)
		loner, err := changes.Create(ctx, be, createFields(docID, author, ""))
		assert.NoError(t, err)

		_, err = changes.ResolveOne(ctx, be, first.ID, false, reviewer)
		assert.NoError(t, err)

		count, err := changes.ResolveGroup(ctx, be, docID, "g1", true, reviewer)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)

		untouched, err := be.DB.FindChangeInfo(ctx, loner.ID)
		assert.NoError(t, err)
		assert.True(t, untouched.IsPending())
	})

	t.Run("accept all sweeps every pending change test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		reviewer := seedReviewer(t, be, docID)
		author := seedAuthor(t, be, docID)

		for i := 0; i < 3; i++ {
			_, err := changes.Create(ctx, be, createFields(docID, author, ""))
			assert.NoError(t, err)
		}

		count, err := changes.ResolveAll(ctx, be, docID, true, reviewer)
		assert.NoError(t, err)
		assert.Equal(t, 3, count)

		pending, err := changes.List(ctx, be, docID, true)
		assert.NoError(t, err)
		assert.Len(t, pending, 0)

		count, err = changes.ResolveAll(ctx, be, docID, false, reviewer)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("failed bulk resolution leaves every member pending test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		reviewer := seedReviewer(t, be, docID)
		author := seedAuthor(t, be, docID)

		for i := 0; i < 3; i++ {
			_, err := changes.Create(ctx, be, createFields(docID, author, "g1"))
			assert.NoError(t, err)
		}

		realDB := be.DB
		be.DB = &failingDB{Database: realDB}

		_, err := changes.ResolveGroup(ctx, be, docID, "g1", true, reviewer)
		assert.ErrorIs(t, err, errStorage)
		_, err = changes.ResolveAll(ctx, be, docID, true, reviewer)
		assert.ErrorIs(t, err, errStorage)

		// Zero members changed: all-or-nothing.
		be.DB = realDB
		pending, err := changes.List(ctx, be, docID, true)
		assert.NoError(t, err)
		assert.Len(t, pending, 3)
		for _, info := range pending {
			assert.True(t, info.IsPending())
		}
	})

	t.Run("list preserves sequence order test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		author := seedAuthor(t, be, docID)

		for i := 0; i < 4; i++ {
			_, err := changes.Create(ctx, be, createFields(docID, author, ""))
			assert.NoError(t, err)
		}

		infos, err := changes.List(ctx, be, docID, false)
		assert.NoError(t, err)
		assert.Len(t, infos, 4)
		for i, info := range infos {
			assert.Equal(t, int64(i+1), info.SequenceNumber)
		}
	})
}
