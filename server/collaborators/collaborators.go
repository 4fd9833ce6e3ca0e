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

// Package collaborators provides the permission registry business logic.
// Every mutating operation in the other services consults this package
// before proceeding.
package collaborators

import (
	"context"
	"errors"
	"time"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	pkgerrors "github.com/redline-team/redline/pkg/errors"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
)

var (
	// ErrPermissionDenied is returned when the user lacks the capability
	// required by the operation.
	ErrPermissionDenied = pkgerrors.PermissionDenied(
		"required capability is not granted",
	).WithCode("ErrPermissionDenied")
)

// CheckCapability returns whether the user holds the given capability on the
// document. An expired or revoked grant evaluates to false for every
// capability.
func CheckCapability(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	capability types.Capability,
) (bool, error) {
	info, err := be.DB.FindCollaboratorInfo(ctx, docID, userID)
	if err != nil {
		if errors.Is(err, database.ErrCollaboratorNotFound) {
			return false, nil
		}
		return false, err
	}

	return info.HasCapability(capability, time.Now()), nil
}

// EnsureCapability returns ErrPermissionDenied unless the user holds the
// given capability on the document.
func EnsureCapability(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	capability types.Capability,
) error {
	ok, err := CheckCapability(ctx, be, docID, userID, capability)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// AddCollaborator grants the given user access to the document. It returns
// ErrCollaboratorExists if an active grant already exists for the pair.
//
// A document starts with no grants, so the first one cannot be authorized by
// an existing manager. The boundary identity claiming the document grants
// itself and receives the manage capability; every later grant requires an
// inviter who holds manage.
func AddCollaborator(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	invitedBy types.ID,
	fields *types.CollaboratorFields,
) (*database.CollaboratorInfo, error) {
	if fields != nil {
		if err := fields.Validate(); err != nil {
			return nil, err
		}
	}

	// The grant-less check and the insert must run under the same lock, or
	// two concurrent first grants could both bootstrap.
	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	existing, err := be.DB.ListCollaboratorInfos(ctx, docID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		if userID != invitedBy {
			return nil, ErrPermissionDenied
		}
		merged := types.CollaboratorFields{}
		if fields != nil {
			merged = *fields
		}
		manage := true
		merged.CanManage = &manage
		fields = &merged
	} else if err := EnsureCapability(ctx, be, docID, invitedBy, types.CapabilityManage); err != nil {
		return nil, err
	}

	info, err := be.DB.CreateCollaboratorInfo(ctx, docID, userID, invitedBy, fields)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.CollaboratorChangedEvent, docID, invitedBy, info.ID, info)
	return info, nil
}

// UpdateCollaborator updates the capabilities or expiry of the user's grant.
func UpdateCollaborator(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	updatedBy types.ID,
	fields *types.CollaboratorFields,
) (*database.CollaboratorInfo, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := EnsureCapability(ctx, be, docID, updatedBy, types.CapabilityManage); err != nil {
		return nil, err
	}

	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	info, err := be.DB.UpdateCollaboratorInfo(ctx, docID, userID, fields)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.CollaboratorChangedEvent, docID, updatedBy, info.ID, info)
	return info, nil
}

// RemoveCollaborator revokes the user's grant. The grant row is kept so
// suggestions, changes, and comments made while access was valid keep their
// attribution.
func RemoveCollaborator(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	userID types.ID,
	removedBy types.ID,
) (*database.CollaboratorInfo, error) {
	if err := EnsureCapability(ctx, be, docID, removedBy, types.CapabilityManage); err != nil {
		return nil, err
	}

	locker := docLockKey(docID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	info, err := be.DB.DeactivateCollaboratorInfo(ctx, docID, userID)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.CollaboratorChangedEvent, docID, removedBy, info.ID, info)
	return info, nil
}

// ListCollaborators returns the grants of the document, active ones first.
func ListCollaborators(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
) ([]*database.CollaboratorInfo, error) {
	return be.DB.ListCollaboratorInfos(ctx, docID)
}

func docLockKey(docID types.ID) string {
	return "doc/" + docID.String()
}

func unlock(be *backend.Backend, name string) {
	_ = be.Lockers.Unlock(name)
}
