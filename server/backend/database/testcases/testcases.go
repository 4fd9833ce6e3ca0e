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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend/database"
)

var (
	dummyUserID    = types.ID("000000000000000000000000")
	otherUserID    = types.ID("000000000000000000000001")
	reviewerUserID = types.ID("000000000000000000000002")
)

func newDocID() types.ID {
	return types.ID(bson.NewObjectID().Hex())
}

func testRange() types.Range {
	return types.Range{
		Start: types.Position{Line: 0, Column: 0, Offset: 0},
		End:   types.Position{Line: 0, Column: 10, Offset: 10},
	}
}

// RunSessionTest runs the session tests for the given db.
func RunSessionTest(t *testing.T, db database.Database) {
	t.Run("session lifecycle test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateSessionInfo(ctx, docID, dummyUserID, "")
		assert.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, docID, info.DocumentID)
		assert.Equal(t, dummyUserID, info.UserID)
		assert.False(t, info.JoinedAt.IsZero())
		assert.Equal(t, info.JoinedAt, info.LastSeenAt)

		found, err := db.FindSessionInfo(ctx, info.ID)
		assert.NoError(t, err)
		assert.Equal(t, info.ID, found.ID)

		removed, err := db.RemoveSessionInfo(ctx, info.ID)
		assert.NoError(t, err)
		assert.Equal(t, info.ID, removed.ID)

		_, err = db.FindSessionInfo(ctx, info.ID)
		assert.ErrorIs(t, err, database.ErrSessionNotFound)

		_, err = db.RemoveSessionInfo(ctx, info.ID)
		assert.ErrorIs(t, err, database.ErrSessionNotFound)
	})

	t.Run("update session cursor test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateSessionInfo(ctx, docID, dummyUserID, "")
		assert.NoError(t, err)

		sel := testRange()
		vp := &types.Viewport{Top: 0, Bottom: 40}
		updated, err := db.UpdateSessionCursor(
			ctx,
			info.ID,
			types.Position{Line: 3, Column: 7, Offset: 42},
			&sel,
			vp,
		)
		assert.NoError(t, err)
		assert.Equal(t, 42, updated.Cursor.Offset)
		assert.NotNil(t, updated.Selection)
		assert.NotNil(t, updated.Viewport)
		assert.False(t, updated.LastSeenAt.Before(info.LastSeenAt))

		touched, err := db.TouchSessionInfo(ctx, info.ID)
		assert.NoError(t, err)
		assert.False(t, touched.LastSeenAt.Before(updated.LastSeenAt))

		_, err = db.UpdateSessionCursor(
			ctx,
			types.ID(bson.NewObjectID().Hex()),
			types.Position{},
			nil,
			nil,
		)
		assert.ErrorIs(t, err, database.ErrSessionNotFound)
	})

	t.Run("active and stale session test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		live, err := db.CreateSessionInfo(ctx, docID, dummyUserID, "")
		assert.NoError(t, err)
		stale, err := db.CreateSessionInfo(ctx, docID, otherUserID, "")
		assert.NoError(t, err)

		// Everything created just now is live against a past threshold.
		actives, err := db.FindActiveSessionInfos(ctx, docID, gotime.Now().Add(-gotime.Minute))
		assert.NoError(t, err)
		assert.Len(t, actives, 2)

		// Against a future threshold both are stale.
		actives, err = db.FindActiveSessionInfos(ctx, docID, gotime.Now().Add(gotime.Minute))
		assert.NoError(t, err)
		assert.Len(t, actives, 0)

		stales, err := db.FindStaleSessionInfos(ctx, gotime.Now().Add(gotime.Minute), 1)
		assert.NoError(t, err)
		assert.Len(t, stales, 1)

		_, err = db.RemoveSessionInfo(ctx, live.ID)
		assert.NoError(t, err)
		_, err = db.RemoveSessionInfo(ctx, stale.ID)
		assert.NoError(t, err)
	})
}

// RunCollaboratorTest runs the collaborator grant tests for the given db.
func RunCollaboratorTest(t *testing.T, db database.Database) {
	t.Run("create and conflict test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateCollaboratorInfo(ctx, docID, dummyUserID, reviewerUserID, nil)
		assert.NoError(t, err)
		assert.True(t, info.IsActive)
		assert.True(t, info.CanComment)
		assert.True(t, info.CanSuggest)
		assert.False(t, info.CanManage)
		assert.Equal(t, reviewerUserID, info.InvitedBy)

		_, err = db.CreateCollaboratorInfo(ctx, docID, dummyUserID, reviewerUserID, nil)
		assert.ErrorIs(t, err, database.ErrCollaboratorExists)

		found, err := db.FindCollaboratorInfo(ctx, docID, dummyUserID)
		assert.NoError(t, err)
		assert.Equal(t, info.ID, found.ID)
	})

	t.Run("update fields test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		canEdit := true
		canResolve := true
		_, err := db.CreateCollaboratorInfo(ctx, docID, dummyUserID, reviewerUserID, &types.CollaboratorFields{
			CanEdit: &canEdit,
		})
		assert.NoError(t, err)

		updated, err := db.UpdateCollaboratorInfo(ctx, docID, dummyUserID, &types.CollaboratorFields{
			CanResolve: &canResolve,
		})
		assert.NoError(t, err)
		assert.True(t, updated.CanEdit)
		assert.True(t, updated.CanResolve)

		_, err = db.UpdateCollaboratorInfo(ctx, docID, otherUserID, &types.CollaboratorFields{
			CanResolve: &canResolve,
		})
		assert.ErrorIs(t, err, database.ErrCollaboratorNotFound)
	})

	t.Run("deactivate and reactivate test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		created, err := db.CreateCollaboratorInfo(ctx, docID, dummyUserID, reviewerUserID, nil)
		assert.NoError(t, err)

		revoked, err := db.DeactivateCollaboratorInfo(ctx, docID, dummyUserID)
		assert.NoError(t, err)
		assert.False(t, revoked.IsActive)

		// Revocation is soft. The row survives for attribution and the active
		// lookup misses it.
		_, err = db.FindCollaboratorInfo(ctx, docID, dummyUserID)
		assert.ErrorIs(t, err, database.ErrCollaboratorNotFound)

		infos, err := db.ListCollaboratorInfos(ctx, docID)
		assert.NoError(t, err)
		assert.Len(t, infos, 1)

		_, err = db.DeactivateCollaboratorInfo(ctx, docID, dummyUserID)
		assert.ErrorIs(t, err, database.ErrCollaboratorNotFound)

		again, err := db.CreateCollaboratorInfo(ctx, docID, dummyUserID, otherUserID, nil)
		assert.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
		assert.True(t, again.IsActive)
		assert.Equal(t, otherUserID, again.InvitedBy)
	})

	t.Run("expired grant test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		past := gotime.Now().Add(-gotime.Hour)
		info, err := db.CreateCollaboratorInfo(ctx, docID, dummyUserID, reviewerUserID, &types.CollaboratorFields{
			ExpiresAt: &past,
		})
		assert.NoError(t, err)
		assert.True(t, info.IsActive)
		assert.False(t, info.IsValid(gotime.Now()))
		assert.False(t, info.HasCapability(types.CapabilityComment, gotime.Now()))
	})

	t.Run("list order test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		_, err := db.CreateCollaboratorInfo(ctx, docID, dummyUserID, reviewerUserID, nil)
		assert.NoError(t, err)
		_, err = db.CreateCollaboratorInfo(ctx, docID, otherUserID, reviewerUserID, nil)
		assert.NoError(t, err)
		_, err = db.DeactivateCollaboratorInfo(ctx, docID, dummyUserID)
		assert.NoError(t, err)

		infos, err := db.ListCollaboratorInfos(ctx, docID)
		assert.NoError(t, err)
		assert.Len(t, infos, 2)
		assert.True(t, infos[0].IsActive)
		assert.False(t, infos[1].IsActive)
	})
}

// RunSuggestionTest runs the suggestion tests for the given db.
func RunSuggestionTest(t *testing.T, db database.Database) {
	t.Run("suggestion lifecycle test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateSuggestionInfo(ctx, &database.SuggestionInfo{
			DocumentID:    docID,
			AuthorID:      dummyUserID,
			Range:         testRange(),
			OriginalText:  "old text",
			SuggestedText: "new text",
			ChangeType:    types.ChangeTypeReplacement,
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, types.SuggestionPending, info.Status)
		assert.True(t, info.IsPending())

		resolved, err := db.ResolveSuggestionInfo(ctx, info.ID, true, reviewerUserID, "looks good")
		assert.NoError(t, err)
		assert.Equal(t, types.SuggestionAccepted, resolved.Status)
		assert.Equal(t, reviewerUserID, resolved.ResolvedBy)
		assert.NotNil(t, resolved.ResolvedAt)
		assert.Equal(t, "looks good", resolved.ResolutionComment)

		// The decision is recorded exactly once.
		_, err = db.ResolveSuggestionInfo(ctx, info.ID, false, reviewerUserID, "")
		assert.ErrorIs(t, err, database.ErrAlreadyResolved)

		found, err := db.FindSuggestionInfo(ctx, info.ID)
		assert.NoError(t, err)
		assert.Equal(t, types.SuggestionAccepted, found.Status)
	})

	t.Run("reject suggestion test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateSuggestionInfo(ctx, &database.SuggestionInfo{
			DocumentID:    docID,
			AuthorID:      dummyUserID,
			Range:         testRange(),
			SuggestedText: "inserted",
			ChangeType:    types.ChangeTypeInsertion,
		})
		assert.NoError(t, err)

		rejected, err := db.ResolveSuggestionInfo(ctx, info.ID, false, reviewerUserID, "")
		assert.NoError(t, err)
		assert.Equal(t, types.SuggestionRejected, rejected.Status)
	})

	t.Run("list and count test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		for i := 0; i < 3; i++ {
			_, err := db.CreateSuggestionInfo(ctx, &database.SuggestionInfo{
				DocumentID: docID,
				AuthorID:   dummyUserID,
				Range:      testRange(),
				ChangeType: types.ChangeTypeDeletion,
			})
			assert.NoError(t, err)
		}

		infos, err := db.ListSuggestionInfos(ctx, docID, "")
		assert.NoError(t, err)
		assert.Len(t, infos, 3)

		_, err = db.ResolveSuggestionInfo(ctx, infos[0].ID, true, reviewerUserID, "")
		assert.NoError(t, err)

		pendings, err := db.ListSuggestionInfos(ctx, docID, types.SuggestionPending)
		assert.NoError(t, err)
		assert.Len(t, pendings, 2)

		count, err := db.CountPendingSuggestions(ctx, docID)
		assert.NoError(t, err)
		assert.Equal(t, 2, count)

		_, err = db.FindSuggestionInfo(ctx, newDocID())
		assert.ErrorIs(t, err, database.ErrSuggestionNotFound)
	})
}

// RunChangeTest runs the track change tests for the given db.
func RunChangeTest(t *testing.T, db database.Database) {
	t.Run("sequence number test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		first, err := db.CreateChangeInfo(ctx, &database.ChangeInfo{
			DocumentID: docID,
			AuthorID:   dummyUserID,
			Range:      testRange(),
			NewText:    "a",
			ChangeType: types.ChangeTypeInsertion,
		})
		assert.NoError(t, err)
		second, err := db.CreateChangeInfo(ctx, &database.ChangeInfo{
			DocumentID: docID,
			AuthorID:   dummyUserID,
			Range:      testRange(),
			NewText:    "b",
			ChangeType: types.ChangeTypeInsertion,
		})
		assert.NoError(t, err)

		assert.Equal(t, int64(1), first.SequenceNumber)
		assert.Equal(t, int64(2), second.SequenceNumber)

		// Sequence numbers are per document.
		other, err := db.CreateChangeInfo(ctx, &database.ChangeInfo{
			DocumentID: newDocID(),
			AuthorID:   dummyUserID,
			Range:      testRange(),
			ChangeType: types.ChangeTypeDeletion,
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), other.SequenceNumber)

		infos, err := db.ListChangeInfos(ctx, docID, false)
		assert.NoError(t, err)
		assert.Len(t, infos, 2)
		assert.Equal(t, first.ID, infos[0].ID)
		assert.Equal(t, second.ID, infos[1].ID)
	})

	t.Run("resolve change test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateChangeInfo(ctx, &database.ChangeInfo{
			DocumentID: docID,
			AuthorID:   dummyUserID,
			Range:      testRange(),
			ChangeType: types.ChangeTypeDeletion,
		})
		assert.NoError(t, err)
		assert.True(t, info.IsPending())

		resolved, err := db.ResolveChangeInfo(ctx, info.ID, false, reviewerUserID)
		assert.NoError(t, err)
		assert.NotNil(t, resolved.IsAccepted)
		assert.False(t, *resolved.IsAccepted)
		assert.Equal(t, reviewerUserID, resolved.AcceptedBy)
		assert.NotNil(t, resolved.AcceptedAt)

		_, err = db.ResolveChangeInfo(ctx, info.ID, true, reviewerUserID)
		assert.ErrorIs(t, err, database.ErrAlreadyResolved)
	})

	t.Run("resolve change group test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()
		groupID := "paste-1"

		for i := 0; i < 3; i++ {
			_, err := db.CreateChangeInfo(ctx, &database.ChangeInfo{
				DocumentID: docID,
				AuthorID:   dummyUserID,
				Range:      testRange(),
				GroupID:    groupID,
				ChangeType: types.ChangeTypeReplacement,
			})
			assert.NoError(t, err)
		}
		loner, err := db.CreateChangeInfo(ctx, &database.ChangeInfo{
			DocumentID: docID,
			AuthorID:   dummyUserID,
			Range:      testRange(),
			ChangeType: types.ChangeTypeInsertion,
		})
		assert.NoError(t, err)

		count, err := db.ResolveChangeGroup(ctx, docID, groupID, true, reviewerUserID)
		assert.NoError(t, err)
		assert.Equal(t, 3, count)

		// Every member carries the same decision; the ungrouped change is
		// untouched.
		infos, err := db.ListChangeInfos(ctx, docID, false)
		assert.NoError(t, err)
		for _, info := range infos {
			if info.ID == loner.ID {
				assert.True(t, info.IsPending())
				continue
			}
			assert.NotNil(t, info.IsAccepted)
			assert.True(t, *info.IsAccepted)
		}

		// Re-resolving the group is a no-op on the already-decided members.
		count, err = db.ResolveChangeGroup(ctx, docID, groupID, false, reviewerUserID)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)

		_, err = db.ResolveChangeGroup(ctx, docID, "no-such-group", true, reviewerUserID)
		assert.ErrorIs(t, err, database.ErrChangeGroupNotFound)
	})

	t.Run("resolve all changes test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		for i := 0; i < 4; i++ {
			_, err := db.CreateChangeInfo(ctx, &database.ChangeInfo{
				DocumentID: docID,
				AuthorID:   dummyUserID,
				Range:      testRange(),
				ChangeType: types.ChangeTypeInsertion,
			})
			assert.NoError(t, err)
		}

		infos, err := db.ListChangeInfos(ctx, docID, true)
		assert.NoError(t, err)
		_, err = db.ResolveChangeInfo(ctx, infos[0].ID, true, reviewerUserID)
		assert.NoError(t, err)

		count, err := db.ResolveAllChanges(ctx, docID, false, reviewerUserID)
		assert.NoError(t, err)
		assert.Equal(t, 3, count)

		pending, err := db.CountPendingChanges(ctx, docID)
		assert.NoError(t, err)
		assert.Equal(t, 0, pending)

		count, err = db.ResolveAllChanges(ctx, docID, true, reviewerUserID)
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

// RunCommentTest runs the inline comment tests for the given db.
func RunCommentTest(t *testing.T, db database.Database) {
	t.Run("comment thread test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		root, err := db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID:      docID,
			AuthorID:        dummyUserID,
			Anchor:          testRange(),
			HighlightedText: "old text",
			Content:         "is this right?",
			ContentRendered: "is this right?",
		})
		assert.NoError(t, err)
		assert.True(t, root.IsRoot())
		assert.Equal(t, types.CommentOpen, root.Status)

		reply, err := db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID:      docID,
			AuthorID:        otherUserID,
			Anchor:          testRange(),
			Content:         "yes",
			ContentRendered: "yes",
			ParentID:        root.ID,
		})
		assert.NoError(t, err)
		assert.False(t, reply.IsRoot())

		// Replies must reference a parent on the same document.
		_, err = db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID: newDocID(),
			AuthorID:   otherUserID,
			Anchor:     testRange(),
			Content:    "lost",
			ParentID:   root.ID,
		})
		assert.ErrorIs(t, err, database.ErrParentMismatch)

		_, err = db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID: docID,
			AuthorID:   otherUserID,
			Anchor:     testRange(),
			Content:    "orphan",
			ParentID:   newDocID(),
		})
		assert.ErrorIs(t, err, database.ErrCommentNotFound)

		infos, err := db.ListCommentInfos(ctx, docID, false)
		assert.NoError(t, err)
		assert.Len(t, infos, 2)
		assert.Equal(t, root.ID, infos[0].ID)
	})

	t.Run("edit comment test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID:      docID,
			AuthorID:        dummyUserID,
			Anchor:          testRange(),
			Content:         "draft",
			ContentRendered: "draft",
		})
		assert.NoError(t, err)
		assert.False(t, info.IsEdited)

		_, err = db.UpdateCommentContent(ctx, info.ID, otherUserID, "hijack", "hijack", nil)
		assert.ErrorIs(t, err, database.ErrNotAuthor)

		edited, err := db.UpdateCommentContent(ctx, info.ID, dummyUserID, "final", "final", nil)
		assert.NoError(t, err)
		assert.True(t, edited.IsEdited)
		assert.Equal(t, 1, edited.EditCount)
		assert.Equal(t, "final", edited.Content)

		edited, err = db.UpdateCommentContent(ctx, info.ID, dummyUserID, "final v2", "final v2", nil)
		assert.NoError(t, err)
		assert.Equal(t, 2, edited.EditCount)
	})

	t.Run("comment status test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID: docID,
			AuthorID:   dummyUserID,
			Anchor:     testRange(),
			Content:    "open question",
		})
		assert.NoError(t, err)

		resolved, err := db.UpdateCommentStatus(ctx, info.ID, types.CommentResolved)
		assert.NoError(t, err)
		assert.Equal(t, types.CommentResolved, resolved.Status)

		// A resolved thread may be reopened.
		reopened, err := db.UpdateCommentStatus(ctx, info.ID, types.CommentOpen)
		assert.NoError(t, err)
		assert.Equal(t, types.CommentOpen, reopened.Status)

		count, err := db.CountOpenComments(ctx, docID)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("soft delete test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		root, err := db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID: docID,
			AuthorID:   dummyUserID,
			Anchor:     testRange(),
			Content:    "root",
		})
		assert.NoError(t, err)
		reply, err := db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID: docID,
			AuthorID:   otherUserID,
			Anchor:     testRange(),
			Content:    "reply",
			ParentID:   root.ID,
		})
		assert.NoError(t, err)

		_, err = db.SoftDeleteCommentInfo(ctx, root.ID, otherUserID)
		assert.ErrorIs(t, err, database.ErrNotAuthor)

		deleted, err := db.SoftDeleteCommentInfo(ctx, root.ID, dummyUserID)
		assert.NoError(t, err)
		assert.True(t, deleted.IsDeleted)

		// The deleted root stays addressable but leaves default listings, and
		// it no longer accepts replies or edits.
		infos, err := db.ListCommentInfos(ctx, docID, false)
		assert.NoError(t, err)
		assert.Len(t, infos, 1)
		assert.Equal(t, reply.ID, infos[0].ID)

		infos, err = db.ListCommentInfos(ctx, docID, true)
		assert.NoError(t, err)
		assert.Len(t, infos, 2)

		found, err := db.FindCommentInfo(ctx, root.ID)
		assert.NoError(t, err)
		assert.True(t, found.IsDeleted)

		_, err = db.CreateCommentInfo(ctx, &database.CommentInfo{
			DocumentID: docID,
			AuthorID:   otherUserID,
			Anchor:     testRange(),
			Content:    "late reply",
			ParentID:   root.ID,
		})
		assert.ErrorIs(t, err, database.ErrCommentDeleted)

		_, err = db.UpdateCommentContent(ctx, root.ID, dummyUserID, "edit", "edit", nil)
		assert.ErrorIs(t, err, database.ErrCommentDeleted)

		_, err = db.SoftDeleteCommentInfo(ctx, root.ID, dummyUserID)
		assert.ErrorIs(t, err, database.ErrCommentDeleted)
	})
}

// RunDocStateTest runs the document collaborative state tests for the given
// db.
func RunDocStateTest(t *testing.T, db database.Database) {
	t.Run("default state test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		info, err := db.FindDocStateInfo(ctx, docID)
		assert.NoError(t, err)
		assert.False(t, info.IsLocked)
		assert.True(t, info.TrackChangesEnabled)
		assert.True(t, info.SuggestionsEnabled)
	})

	t.Run("lock and unlock test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		locked, err := db.LockDocumentState(ctx, docID, reviewerUserID, "final review")
		assert.NoError(t, err)
		assert.True(t, locked.IsLocked)
		assert.Equal(t, reviewerUserID, locked.LockedBy)
		assert.NotNil(t, locked.LockedAt)
		assert.Equal(t, "final review", locked.LockReason)

		found, err := db.FindDocStateInfo(ctx, docID)
		assert.NoError(t, err)
		assert.True(t, found.IsLocked)

		unlocked, err := db.UnlockDocumentState(ctx, docID)
		assert.NoError(t, err)
		assert.False(t, unlocked.IsLocked)
		assert.Empty(t, unlocked.LockedBy)
		assert.Nil(t, unlocked.LockedAt)
	})

	t.Run("settings test", func(t *testing.T) {
		ctx := context.Background()
		docID := newDocID()

		off := false
		info, err := db.UpdateDocStateSettings(ctx, docID, &types.DocSettingFields{
			SuggestionsEnabled: &off,
		})
		assert.NoError(t, err)
		assert.False(t, info.SuggestionsEnabled)
		assert.True(t, info.TrackChangesEnabled)

		on := true
		info, err = db.UpdateDocStateSettings(ctx, docID, &types.DocSettingFields{
			SuggestionsEnabled:  &on,
			TrackChangesEnabled: &off,
		})
		assert.NoError(t, err)
		assert.True(t, info.SuggestionsEnabled)
		assert.False(t, info.TrackChangesEnabled)
	})
}
