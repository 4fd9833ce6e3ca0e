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

// Package documents provides the document collaborative state business
// logic: the lock, the feature toggles, and the derived review summary.
package documents

import (
	"context"
	"time"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	pkgerrors "github.com/redline-team/redline/pkg/errors"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/collaborators"
)

var (
	// ErrDocumentLocked is returned when a create is attempted on a locked
	// document. Resolution of pre-existing items is not blocked by the lock.
	ErrDocumentLocked = pkgerrors.FailedPrecond(
		"document is locked",
	).WithCode("ErrDocumentLocked")

	// ErrSuggestionsDisabled is returned when a suggestion is created while
	// the feature toggle is off.
	ErrSuggestionsDisabled = pkgerrors.FailedPrecond(
		"suggestions are disabled for this document",
	).WithCode("ErrFeatureDisabled")

	// ErrTrackChangesDisabled is returned when a track change is recorded
	// while the feature toggle is off.
	ErrTrackChangesDisabled = pkgerrors.FailedPrecond(
		"track changes are disabled for this document",
	).WithCode("ErrFeatureDisabled")
)

// FindState returns the collaborative state of the document, defaulted if no
// state row exists yet.
func FindState(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) (*database.DocStateInfo, error) {
	return be.DB.FindDocStateInfo(ctx, docID)
}

// EnsureSuggestionsWritable returns an error unless new suggestions may be
// created on the document.
func EnsureSuggestionsWritable(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) error {
	state, err := be.DB.FindDocStateInfo(ctx, docID)
	if err != nil {
		return err
	}
	if state.IsLocked {
		return ErrDocumentLocked
	}
	if !state.SuggestionsEnabled {
		return ErrSuggestionsDisabled
	}
	return nil
}

// EnsureChangesWritable returns an error unless new track changes may be
// recorded on the document.
func EnsureChangesWritable(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) error {
	state, err := be.DB.FindDocStateInfo(ctx, docID)
	if err != nil {
		return err
	}
	if state.IsLocked {
		return ErrDocumentLocked
	}
	if !state.TrackChangesEnabled {
		return ErrTrackChangesDisabled
	}
	return nil
}

// Lock locks the document for review. New suggestions and track changes are
// refused while the lock is held; pending ones remain resolvable.
func Lock(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	reason string,
) (*database.DocStateInfo, error) {
	if err := collaborators.EnsureCapability(ctx, be, docID, userID, types.CapabilityManage); err != nil {
		return nil, err
	}

	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	state, err := be.DB.LockDocumentState(ctx, docID, userID, reason)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.StateChangedEvent, docID, userID, docID, state)
	return state, nil
}

// Unlock clears the document lock.
func Unlock(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
) (*database.DocStateInfo, error) {
	if err := collaborators.EnsureCapability(ctx, be, docID, userID, types.CapabilityManage); err != nil {
		return nil, err
	}

	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	state, err := be.DB.UnlockDocumentState(ctx, docID)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.StateChangedEvent, docID, userID, docID, state)
	return state, nil
}

// UpdateSettings toggles the collaboration features of the document.
// Disabling a feature only blocks new items; pending ones stay resolvable.
func UpdateSettings(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	fields *types.DocSettingFields,
) (*database.DocStateInfo, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := collaborators.EnsureCapability(ctx, be, docID, userID, types.CapabilityManage); err != nil {
		return nil, err
	}

	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	state, err := be.DB.UpdateDocStateSettings(ctx, docID, fields)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.StateChangedEvent, docID, userID, docID, state)
	return state, nil
}

// Summary computes the review summary of the document on demand.
func Summary(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) (*types.CollaborationSummary, error) {
	state, err := be.DB.FindDocStateInfo(ctx, docID)
	if err != nil {
		return nil, err
	}

	pendingSuggestions, err := be.DB.CountPendingSuggestions(ctx, docID)
	if err != nil {
		return nil, err
	}
	pendingChanges, err := be.DB.CountPendingChanges(ctx, docID)
	if err != nil {
		return nil, err
	}
	openComments, err := be.DB.CountOpenComments(ctx, docID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-be.Config.ParseSessionLivenessThreshold())
	active, err := be.DB.FindActiveSessionInfos(ctx, docID, cutoff)
	if err != nil {
		return nil, err
	}

	return &types.CollaborationSummary{
		DocumentID:          docID,
		PendingSuggestions:  pendingSuggestions,
		PendingChanges:      pendingChanges,
		OpenComments:        openComments,
		ActiveEditors:       len(active),
		IsLocked:            state.IsLocked,
		TrackChangesEnabled: state.TrackChangesEnabled,
		SuggestionsEnabled:  state.SuggestionsEnabled,
	}, nil
}

func docLockKey(docID types.ID) string {
	return "doc/" + docID.String()
}

func unlock(be *backend.Backend, name string) {
	_ = be.Lockers.Unlock(name)
}
