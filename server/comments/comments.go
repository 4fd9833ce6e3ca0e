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

// Package comments provides the inline comment thread business logic.
// Comment bodies are authored in a lightweight markup and stored alongside a
// rendered form that is recomputed on every content update.
package comments

import (
	"context"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/internal/validation"
	pkgerrors "github.com/redline-team/redline/pkg/errors"
	"github.com/redline-team/redline/pkg/markup"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/collaborators"
)

// CreateFields carries the caller-provided fields of a new comment.
type CreateFields struct {
	DocumentID        types.ID
	DocumentVersionID types.ID
	AuthorID          types.ID
	Anchor            types.Range
	HighlightedText   string
	Content           string `validate:"required,max=10000"`
	ParentID          types.ID
	MentionedUsers    []types.ID
}

// Validate returns an InvalidArgument error when a user-supplied field is
// out of bounds.
func (f *CreateFields) Validate() error {
	if err := validation.ValidateStruct(f); err != nil {
		return pkgerrors.InvalidArgument(err.Error()).WithCode("ErrInvalidFields")
	}
	return nil
}

// Create stores a new comment. A reply's parent must exist on the same
// document and not be deleted. The comment capability is required.
func Create(
	ctx context.Context,
	be *backend.Backend,
	fields CreateFields,
) (*database.CommentInfo, error) {
	if err := fields.Anchor.Validate(); err != nil {
		return nil, err
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := collaborators.EnsureCapability(
		ctx, be, fields.DocumentID, fields.AuthorID, types.CapabilityComment,
	); err != nil {
		return nil, err
	}

	if len(fields.MentionedUsers) == 0 {
		fields.MentionedUsers = deriveMentions(fields.Content)
	}

	locker := docLockKey(fields.DocumentID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	info, err := be.DB.CreateCommentInfo(ctx, &database.CommentInfo{
		DocumentID:        fields.DocumentID,
		DocumentVersionID: fields.DocumentVersionID,
		AuthorID:          fields.AuthorID,
		Anchor:            fields.Anchor,
		HighlightedText:   fields.HighlightedText,
		Content:           fields.Content,
		ContentRendered:   markup.Render(fields.Content),
		ParentID:          fields.ParentID,
		MentionedUsers:    fields.MentionedUsers,
	})
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.CommentCreatedEvent, info.DocumentID, info.AuthorID, info.ID, info)
	return info, nil
}

// Update replaces the content of the comment and recomputes its rendered
// form. Only the original author may update.
func Update(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	authorID types.ID,
	content string,
	mentionedUsers []types.ID,
) (*database.CommentInfo, error) {
	if err := validation.ValidateValue(content, "required,max=10000"); err != nil {
		return nil, pkgerrors.InvalidArgument(err.Error()).WithCode("ErrInvalidFields")
	}

	info, err := be.DB.FindCommentInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(mentionedUsers) == 0 {
		mentionedUsers = deriveMentions(content)
	}

	locker := docLockKey(info.DocumentID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	updated, err := be.DB.UpdateCommentContent(
		ctx, id, authorID, content, markup.Render(content), mentionedUsers,
	)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.CommentUpdatedEvent, updated.DocumentID, authorID, updated.ID, updated)
	return updated, nil
}

// UpdateStatus transitions the thread status. A resolved thread may be
// reopened. The resolve capability is required, except that the author of a
// thread root may resolve or reopen their own thread.
func UpdateStatus(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	status types.CommentStatus,
	userID types.ID,
) (*database.CommentInfo, error) {
	info, err := be.DB.FindCommentInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	if !(info.IsRoot() && info.AuthorID == userID) {
		if err := collaborators.EnsureCapability(
			ctx, be, info.DocumentID, userID, types.CapabilityResolve,
		); err != nil {
			return nil, err
		}
	}

	locker := docLockKey(info.DocumentID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	updated, err := be.DB.UpdateCommentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.CommentUpdatedEvent, updated.DocumentID, userID, updated.ID, updated)
	return updated, nil
}

// Delete soft-deletes the comment. Only the original author may delete. The
// comment stays addressable as a parent so replies keep their thread.
func Delete(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	authorID types.ID,
) error {
	info, err := be.DB.FindCommentInfo(ctx, id)
	if err != nil {
		return err
	}

	locker := docLockKey(info.DocumentID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	deleted, err := be.DB.SoftDeleteCommentInfo(ctx, id, authorID)
	if err != nil {
		return err
	}

	be.PublishDocEvent(ctx, events.CommentUpdatedEvent, deleted.DocumentID, authorID, deleted.ID, deleted)
	return nil
}

// List returns the comments of the document in creation order. Deleted
// comments are included only when includeDeleted is set.
func List(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	includeDeleted bool,
) ([]*database.CommentInfo, error) {
	return be.DB.ListCommentInfos(ctx, docID, includeDeleted)
}

// deriveMentions extracts mention tokens from the comment markup when the
// caller did not supply an explicit mention list.
func deriveMentions(content string) []types.ID {
	var ids []types.ID
	for _, name := range markup.Mentions(content) {
		ids = append(ids, types.ID(name))
	}
	return ids
}

func docLockKey(docID types.ID) string {
	return "doc/" + docID.String()
}

func unlock(be *backend.Backend, name string) {
	_ = be.Lockers.Unlock(name)
}
