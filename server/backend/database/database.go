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

// Package database provides the database interface for the Redline backend.
package database

import (
	"context"
	gotime "time"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/pkg/errors"
)

var (
	// ErrSessionNotFound is returned when the session could not be found.
	ErrSessionNotFound = errors.NotFound("session not found").WithCode("ErrSessionNotFound")

	// ErrCollaboratorNotFound is returned when no grant exists for the
	// (document, user) pair.
	ErrCollaboratorNotFound = errors.NotFound("collaborator not found").WithCode("ErrCollaboratorNotFound")

	// ErrCollaboratorExists is returned when an active grant already exists
	// for the (document, user) pair.
	ErrCollaboratorExists = errors.AlreadyExists("collaborator already exists").WithCode("ErrCollaboratorExists")

	// ErrSuggestionNotFound is returned when the suggestion could not be found.
	ErrSuggestionNotFound = errors.NotFound("suggestion not found").WithCode("ErrSuggestionNotFound")

	// ErrChangeNotFound is returned when the track change could not be found.
	ErrChangeNotFound = errors.NotFound("track change not found").WithCode("ErrChangeNotFound")

	// ErrChangeGroupNotFound is returned when the change group has no members
	// on the document.
	ErrChangeGroupNotFound = errors.FailedPrecond("change group not found").WithCode("ErrChangeGroupNotFound")

	// ErrCommentNotFound is returned when the comment could not be found.
	ErrCommentNotFound = errors.NotFound("comment not found").WithCode("ErrCommentNotFound")

	// ErrAlreadyResolved is returned when resolving an entity whose decision
	// was already recorded. The stored decision never changes.
	ErrAlreadyResolved = errors.FailedPrecond("already resolved").WithCode("ErrAlreadyResolved")

	// ErrCommentDeleted is returned when mutating a soft-deleted comment or
	// replying to one.
	ErrCommentDeleted = errors.FailedPrecond("comment is deleted").WithCode("ErrCommentDeleted")

	// ErrNotAuthor is returned when a comment mutation reserved to the author
	// is attempted by someone else.
	ErrNotAuthor = errors.PermissionDenied("only the author may do this").WithCode("ErrNotAuthor")

	// ErrParentMismatch is returned when a reply references a parent comment
	// on another document.
	ErrParentMismatch = errors.InvalidArgument("parent comment belongs to another document").WithCode("ErrParentMismatch")
)

// Database reads and saves the collaboration entities. Implementations must
// execute each method atomically: a failure inside ResolveChangeGroup or
// ResolveAllChanges leaves no member changed.
type Database interface {
	// Close closes all resources of this database.
	Close() error

	// CreateSessionInfo creates an editing session for the given user on the
	// given document.
	CreateSessionInfo(
		ctx context.Context,
		docID types.ID,
		userID types.ID,
		versionID types.ID,
	) (*SessionInfo, error)

	// FindSessionInfo finds the session of the given id.
	FindSessionInfo(ctx context.Context, sessionID types.ID) (*SessionInfo, error)

	// UpdateSessionCursor stores the cursor, optional selection and viewport
	// of the session and refreshes its liveness timestamp.
	UpdateSessionCursor(
		ctx context.Context,
		sessionID types.ID,
		cursor types.Position,
		selection *types.Range,
		viewport *types.Viewport,
	) (*SessionInfo, error)

	// TouchSessionInfo refreshes the liveness timestamp of the session.
	TouchSessionInfo(ctx context.Context, sessionID types.ID) (*SessionInfo, error)

	// RemoveSessionInfo removes the session of the given id. It returns
	// ErrSessionNotFound if the session was already removed.
	RemoveSessionInfo(ctx context.Context, sessionID types.ID) (*SessionInfo, error)

	// FindActiveSessionInfos returns the sessions of the document whose
	// liveness timestamp is no older than the given threshold.
	FindActiveSessionInfos(
		ctx context.Context,
		docID types.ID,
		lastSeenAfter gotime.Time,
	) ([]*SessionInfo, error)

	// FindStaleSessionInfos returns up to limit sessions across all documents
	// whose liveness timestamp is older than the given time.
	FindStaleSessionInfos(
		ctx context.Context,
		lastSeenBefore gotime.Time,
		limit int,
	) ([]*SessionInfo, error)

	// CreateCollaboratorInfo creates a collaborator grant. It returns
	// ErrCollaboratorExists if an active grant already exists for the
	// (document, user) pair.
	CreateCollaboratorInfo(
		ctx context.Context,
		docID types.ID,
		userID types.ID,
		invitedBy types.ID,
		fields *types.CollaboratorFields,
	) (*CollaboratorInfo, error)

	// FindCollaboratorInfo finds the active grant for the (document, user)
	// pair. Inactive grants are not returned.
	FindCollaboratorInfo(
		ctx context.Context,
		docID types.ID,
		userID types.ID,
	) (*CollaboratorInfo, error)

	// UpdateCollaboratorInfo updates the capabilities or expiry of the active
	// grant for the (document, user) pair.
	UpdateCollaboratorInfo(
		ctx context.Context,
		docID types.ID,
		userID types.ID,
		fields *types.CollaboratorFields,
	) (*CollaboratorInfo, error)

	// DeactivateCollaboratorInfo revokes the active grant for the (document,
	// user) pair. The grant row is kept to preserve attribution.
	DeactivateCollaboratorInfo(
		ctx context.Context,
		docID types.ID,
		userID types.ID,
	) (*CollaboratorInfo, error)

	// ListCollaboratorInfos returns the grants of the document, active ones
	// first.
	ListCollaboratorInfos(ctx context.Context, docID types.ID) ([]*CollaboratorInfo, error)

	// CreateSuggestionInfo stores the given pending suggestion.
	CreateSuggestionInfo(ctx context.Context, info *SuggestionInfo) (*SuggestionInfo, error)

	// FindSuggestionInfo finds the suggestion of the given id.
	FindSuggestionInfo(ctx context.Context, id types.ID) (*SuggestionInfo, error)

	// ResolveSuggestionInfo records the accept/reject decision for a pending
	// suggestion. It returns ErrAlreadyResolved if a decision was already
	// recorded.
	ResolveSuggestionInfo(
		ctx context.Context,
		id types.ID,
		accept bool,
		resolvedBy types.ID,
		comment string,
	) (*SuggestionInfo, error)

	// ListSuggestionInfos returns the suggestions of the document, optionally
	// filtered by status.
	ListSuggestionInfos(
		ctx context.Context,
		docID types.ID,
		status types.SuggestionStatus,
	) ([]*SuggestionInfo, error)

	// CountPendingSuggestions returns the number of pending suggestions of
	// the document.
	CountPendingSuggestions(ctx context.Context, docID types.ID) (int, error)

	// CreateChangeInfo stores the given pending track change, assigning the
	// next sequence number of the document.
	CreateChangeInfo(ctx context.Context, info *ChangeInfo) (*ChangeInfo, error)

	// FindChangeInfo finds the track change of the given id.
	FindChangeInfo(ctx context.Context, id types.ID) (*ChangeInfo, error)

	// ResolveChangeInfo records the accept/reject decision for a pending
	// track change. It returns ErrAlreadyResolved if a decision was already
	// recorded.
	ResolveChangeInfo(
		ctx context.Context,
		id types.ID,
		accept bool,
		resolvedBy types.ID,
	) (*ChangeInfo, error)

	// ResolveChangeGroup resolves every still-pending member of the group to
	// the same decision atomically and returns the number affected.
	ResolveChangeGroup(
		ctx context.Context,
		docID types.ID,
		groupID string,
		accept bool,
		resolvedBy types.ID,
	) (int, error)

	// ResolveAllChanges resolves every pending track change of the document
	// to the same decision atomically and returns the number affected.
	ResolveAllChanges(
		ctx context.Context,
		docID types.ID,
		accept bool,
		resolvedBy types.ID,
	) (int, error)

	// ListChangeInfos returns the track changes of the document in sequence
	// number order, optionally restricted to pending ones.
	ListChangeInfos(
		ctx context.Context,
		docID types.ID,
		pendingOnly bool,
	) ([]*ChangeInfo, error)

	// CountPendingChanges returns the number of pending track changes of the
	// document.
	CountPendingChanges(ctx context.Context, docID types.ID) (int, error)

	// CreateCommentInfo stores the given comment. If the comment is a reply,
	// the parent must exist on the same document and not be deleted.
	CreateCommentInfo(ctx context.Context, info *CommentInfo) (*CommentInfo, error)

	// FindCommentInfo finds the comment of the given id.
	FindCommentInfo(ctx context.Context, id types.ID) (*CommentInfo, error)

	// UpdateCommentContent replaces the content of the comment. It returns
	// ErrNotAuthor unless authorID matches the stored author.
	UpdateCommentContent(
		ctx context.Context,
		id types.ID,
		authorID types.ID,
		content string,
		contentRendered string,
		mentionedUsers []types.ID,
	) (*CommentInfo, error)

	// UpdateCommentStatus transitions the thread status. Reopening a resolved
	// thread is allowed.
	UpdateCommentStatus(
		ctx context.Context,
		id types.ID,
		status types.CommentStatus,
	) (*CommentInfo, error)

	// SoftDeleteCommentInfo marks the comment deleted while keeping it
	// addressable as a parent. It returns ErrNotAuthor unless authorID
	// matches the stored author.
	SoftDeleteCommentInfo(
		ctx context.Context,
		id types.ID,
		authorID types.ID,
	) (*CommentInfo, error)

	// ListCommentInfos returns the comments of the document in creation
	// order. Deleted comments are included only when includeDeleted is set.
	ListCommentInfos(
		ctx context.Context,
		docID types.ID,
		includeDeleted bool,
	) ([]*CommentInfo, error)

	// CountOpenComments returns the number of open, non-deleted comments of
	// the document.
	CountOpenComments(ctx context.Context, docID types.ID) (int, error)

	// FindDocStateInfo returns the collaborative state row of the document,
	// or the defaults (unlocked, both features enabled) if none exists.
	FindDocStateInfo(ctx context.Context, docID types.ID) (*DocStateInfo, error)

	// LockDocumentState upserts the state row with the lock fields set.
	LockDocumentState(
		ctx context.Context,
		docID types.ID,
		lockedBy types.ID,
		reason string,
	) (*DocStateInfo, error)

	// UnlockDocumentState clears the lock fields of the state row.
	UnlockDocumentState(ctx context.Context, docID types.ID) (*DocStateInfo, error)

	// UpdateDocStateSettings updates the feature toggles of the state row.
	UpdateDocStateSettings(
		ctx context.Context,
		docID types.ID,
		fields *types.DocSettingFields,
	) (*DocStateInfo, error)
}
