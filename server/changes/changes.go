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

// Package changes provides the track-change ledger business logic. Every
// change is pending until accepted or rejected; changes sharing a group id
// are decided together.
package changes

import (
	"context"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/documents"
)

// CreateFields carries the caller-provided fields of a new track change.
// Sequence numbers are assigned by the storage layer, never by the caller.
type CreateFields struct {
	DocumentID        types.ID
	DocumentVersionID types.ID
	AuthorID          types.ID
	SessionID         types.ID
	Range             types.Range
	OriginalText      string
	NewText           string
	ChangeType        types.ChangeType
	GroupID           string
}

// Create records a new pending track change. A track change is a recorded
// edit, so it requires the edit capability. It fails when the document is
// locked or track changes are disabled.
func Create(
	ctx context.Context,
	be *backend.Backend,
	fields CreateFields,
) (*database.ChangeInfo, error) {
	if err := fields.Range.Validate(); err != nil {
		return nil, err
	}
	if err := collaborators.EnsureCapability(
		ctx, be, fields.DocumentID, fields.AuthorID, types.CapabilityEdit,
	); err != nil {
		return nil, err
	}

	locker := docLockKey(fields.DocumentID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	if err := documents.EnsureChangesWritable(ctx, be, fields.DocumentID); err != nil {
		return nil, err
	}

	info, err := be.DB.CreateChangeInfo(ctx, &database.ChangeInfo{
		DocumentID:        fields.DocumentID,
		DocumentVersionID: fields.DocumentVersionID,
		AuthorID:          fields.AuthorID,
		SessionID:         fields.SessionID,
		Range:             fields.Range,
		OriginalText:      fields.OriginalText,
		NewText:           fields.NewText,
		ChangeType:        fields.ChangeType,
		GroupID:           fields.GroupID,
	})
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.ChangeCreatedEvent, info.DocumentID, info.AuthorID, info.ID, info)
	return info, nil
}

// ResolveOne records the accept or reject decision for a single pending
// change. It requires the resolve capability and fails with
// ErrAlreadyResolved once a decision has been recorded.
func ResolveOne(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	accept bool,
	resolvedBy types.ID,
) (*database.ChangeInfo, error) {
	info, err := be.DB.FindChangeInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := collaborators.EnsureCapability(
		ctx, be, info.DocumentID, resolvedBy, types.CapabilityResolve,
	); err != nil {
		return nil, err
	}

	locker := docLockKey(info.DocumentID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	resolved, err := be.DB.ResolveChangeInfo(ctx, id, accept, resolvedBy)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.ChangeResolvedEvent, resolved.DocumentID, resolvedBy, resolved.ID, resolved)
	return resolved, nil
}

// ResolveGroup resolves every still-pending member of the group to the same
// decision atomically and returns the number affected. Members that already
// carry a decision are left untouched.
func ResolveGroup(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	groupID string,
	accept bool,
	resolvedBy types.ID,
) (int, error) {
	if err := collaborators.EnsureCapability(
		ctx, be, docID, resolvedBy, types.CapabilityResolve,
	); err != nil {
		return 0, err
	}

	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	count, err := be.DB.ResolveChangeGroup(ctx, docID, groupID, accept, resolvedBy)
	if err != nil {
		return 0, err
	}

	be.PublishDocEvent(ctx, events.ChangeResolvedEvent, docID, resolvedBy, types.ID(groupID), resolveGroupPayload{
		GroupID:  groupID,
		Accepted: accept,
		Count:    count,
	})
	return count, nil
}

// ResolveAll resolves every pending change of the document to the same
// decision atomically and returns the number affected. It is the
// end-of-review sweep behind accept-all and reject-all.
func ResolveAll(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	accept bool,
	resolvedBy types.ID,
) (int, error) {
	if err := collaborators.EnsureCapability(
		ctx, be, docID, resolvedBy, types.CapabilityResolve,
	); err != nil {
		return 0, err
	}

	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	count, err := be.DB.ResolveAllChanges(ctx, docID, accept, resolvedBy)
	if err != nil {
		return 0, err
	}

	be.PublishDocEvent(ctx, events.ChangeResolvedEvent, docID, resolvedBy, docID, resolveGroupPayload{
		Accepted: accept,
		Count:    count,
	})
	return count, nil
}

// List returns the track changes of the document in sequence number order,
// optionally restricted to pending ones.
func List(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	pendingOnly bool,
) ([]*database.ChangeInfo, error) {
	return be.DB.ListChangeInfos(ctx, docID, pendingOnly)
}

type resolveGroupPayload struct {
	GroupID  string `json:"group_id,omitempty"`
	Accepted bool   `json:"accepted"`
	Count    int    `json:"count"`
}

func docLockKey(docID types.ID) string {
	return "doc/" + docID.String()
}

func unlock(be *backend.Backend, name string) {
	_ = be.Lockers.Unlock(name)
}
