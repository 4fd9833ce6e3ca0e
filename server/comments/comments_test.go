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

package comments_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/comments"
	"github.com/redline-team/redline/test/helper"
)

func createFields(docID, authorID types.ID, content string, parentID types.ID) comments.CreateFields {
	return comments.CreateFields{
		DocumentID: docID,
		AuthorID:   authorID,
		Anchor: types.Range{
			Start: types.Position{Line: 2, Column: 0, Offset: 20},
			End:   types.Position{Line: 2, Column: 8, Offset: 28},
		},
		HighlightedText: "the text",
		Content:         content,
		ParentID:        parentID,
	}
}

func TestComments(t *testing.T) {
	ctx := context.Background()

	t.Run("create renders the markup test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, author, nil)

		info, err := comments.Create(ctx, be, createFields(docID, author, "this is **wrong**", ""))
		assert.NoError(t, err)
		assert.Equal(t, "this is <strong>wrong</strong>", info.ContentRendered)
		assert.Equal(t, types.CommentOpen, info.Status)
		assert.True(t, info.IsRoot())
	})

	t.Run("mentions derived from the markup test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID, author := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, author, nil)

		info, err := comments.Create(ctx, be, createFields(docID, author, "ping @alice and `@not-you`", ""))
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{"alice"}, info.MentionedUsers)

		// An explicit mention list wins over the derived one.
		fields := createFields(docID, author, "cc @alice", "")
		fields.MentionedUsers = []types.ID{"bob"}
		info, err = comments.Create(ctx, be, fields)
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{"bob"}, info.MentionedUsers)

		updated, err := comments.Update(ctx, be, info.ID, author, "cc @carol instead", nil)
		assert.NoError(t, err)
		assert.Equal(t, []types.ID{"carol"}, updated.MentionedUsers)
	})

	t.Run("reply joins the thread test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		alice, bob := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, alice, nil)
		helper.SeedCollaborator(t, be, docID, bob, nil)

		root, err := comments.Create(ctx, be, createFields(docID, alice, "thoughts?", ""))
		assert.NoError(t, err)

		reply, err := comments.Create(ctx, be, createFields(docID, bob, "agreed", root.ID))
		assert.NoError(t, err)
		assert.Equal(t, root.ID, reply.ParentID)

		// Replying under a comment of another document fails.
		otherDoc := helper.NewID()
		helper.SeedCollaborator(t, be, otherDoc, bob, nil)
		_, err = comments.Create(ctx, be, createFields(otherDoc, bob, "lost", root.ID))
		assert.ErrorIs(t, err, database.ErrParentMismatch)
	})

	t.Run("only the author may update test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		alice, bob := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, alice, nil)
		helper.SeedCollaborator(t, be, docID, bob, nil)

		info, err := comments.Create(ctx, be, createFields(docID, alice, "draft", ""))
		assert.NoError(t, err)

		_, err = comments.Update(ctx, be, info.ID, bob, "hijacked", nil)
		assert.ErrorIs(t, err, database.ErrNotAuthor)

		updated, err := comments.Update(ctx, be, info.ID, alice, "use `go vet`", nil)
		assert.NoError(t, err)
		assert.True(t, updated.IsEdited)
		assert.Equal(t, 1, updated.EditCount)
		assert.Equal(t, "use <code>go vet</code>", updated.ContentRendered)
	})

	t.Run("thread author may resolve their own root test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		alice, bob := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, alice, nil)
		helper.SeedCollaborator(t, be, docID, bob, nil)

		root, err := comments.Create(ctx, be, createFields(docID, alice, "is this right?", ""))
		assert.NoError(t, err)
		reply, err := comments.Create(ctx, be, createFields(docID, bob, "yes", root.ID))
		assert.NoError(t, err)

		resolved, err := comments.UpdateStatus(ctx, be, root.ID, types.CommentResolved, alice)
		assert.NoError(t, err)
		assert.Equal(t, types.CommentResolved, resolved.Status)

		// A resolved thread may be reopened.
		reopened, err := comments.UpdateStatus(ctx, be, root.ID, types.CommentOpen, alice)
		assert.NoError(t, err)
		assert.Equal(t, types.CommentOpen, reopened.Status)

		// Bob authored only a reply, so resolving needs the capability.
		_, err = comments.UpdateStatus(ctx, be, reply.ID, types.CommentDismissed, bob)
		assert.Error(t, err)
	})

	t.Run("soft delete keeps the thread intact test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		alice, bob := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, alice, nil)
		helper.SeedCollaborator(t, be, docID, bob, nil)

		root, err := comments.Create(ctx, be, createFields(docID, alice, "root", ""))
		assert.NoError(t, err)
		reply, err := comments.Create(ctx, be, createFields(docID, bob, "reply", root.ID))
		assert.NoError(t, err)

		assert.ErrorIs(t, comments.Delete(ctx, be, root.ID, bob), database.ErrNotAuthor)
		assert.NoError(t, comments.Delete(ctx, be, root.ID, alice))

		listed, err := comments.List(ctx, be, docID, false)
		assert.NoError(t, err)
		assert.Len(t, listed, 1)
		assert.Equal(t, reply.ID, listed[0].ID)

		all, err := comments.List(ctx, be, docID, true)
		assert.NoError(t, err)
		assert.Len(t, all, 2)
		assert.True(t, all[0].IsDeleted)
		assert.Equal(t, root.ID, all[1].ParentID)
	})
}
