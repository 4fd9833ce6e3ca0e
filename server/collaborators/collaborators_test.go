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

package collaborators_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/test/helper"
)

func TestCollaborators(t *testing.T) {
	ctx := context.Background()

	t.Run("add requires manage capability test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		manager, member, outsider := helper.NewID(), helper.NewID(), helper.NewID()

		helper.SeedCollaborator(t, be, docID, manager, &types.CollaboratorFields{
			CanManage: helper.Bool(true),
		})

		_, err := collaborators.AddCollaborator(ctx, be, docID, member, outsider, nil)
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		info, err := collaborators.AddCollaborator(ctx, be, docID, member, manager, nil)
		assert.NoError(t, err)
		assert.Equal(t, member, info.UserID)
		assert.True(t, info.CanSuggest)
		assert.True(t, info.CanComment)
		assert.False(t, info.CanManage)
	})

	t.Run("first grant on a document bootstraps manage test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		owner, stranger := helper.NewID(), helper.NewID()

		// A grant-less document can only be claimed by the identity
		// granting itself.
		_, err := collaborators.AddCollaborator(ctx, be, docID, owner, stranger, nil)
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		info, err := collaborators.AddCollaborator(ctx, be, docID, owner, owner, nil)
		assert.NoError(t, err)
		assert.True(t, info.CanManage)
		assert.True(t, info.CanSuggest)
		assert.True(t, info.CanComment)

		// Once a grant exists, adding goes back through the manage gate.
		member := helper.NewID()
		_, err = collaborators.AddCollaborator(ctx, be, docID, member, member, nil)
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		added, err := collaborators.AddCollaborator(ctx, be, docID, member, owner, nil)
		assert.NoError(t, err)
		assert.False(t, added.CanManage)
	})

	t.Run("add conflicts with an existing active grant test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		manager, member := helper.NewID(), helper.NewID()

		helper.SeedCollaborator(t, be, docID, manager, &types.CollaboratorFields{
			CanManage: helper.Bool(true),
		})

		_, err := collaborators.AddCollaborator(ctx, be, docID, member, manager, nil)
		assert.NoError(t, err)

		_, err = collaborators.AddCollaborator(ctx, be, docID, member, manager, nil)
		assert.ErrorIs(t, err, database.ErrCollaboratorExists)
	})

	t.Run("check capability test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		member := helper.NewID()

		ok, err := collaborators.CheckCapability(ctx, be, docID, member, types.CapabilityComment)
		assert.NoError(t, err)
		assert.False(t, ok)

		helper.SeedCollaborator(t, be, docID, member, nil)

		ok, err = collaborators.CheckCapability(ctx, be, docID, member, types.CapabilityComment)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = collaborators.CheckCapability(ctx, be, docID, member, types.CapabilityResolve)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired grant evaluates to false test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		member := helper.NewID()

		expired := time.Now().Add(-time.Minute)
		helper.SeedCollaborator(t, be, docID, member, &types.CollaboratorFields{
			CanResolve: helper.Bool(true),
			ExpiresAt:  &expired,
		})

		for _, capability := range []types.Capability{
			types.CapabilityEdit,
			types.CapabilitySuggest,
			types.CapabilityComment,
			types.CapabilityResolve,
			types.CapabilityManage,
		} {
			ok, err := collaborators.CheckCapability(ctx, be, docID, member, capability)
			assert.NoError(t, err)
			assert.False(t, ok)
		}
	})

	t.Run("capability gating flips with the grant test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		manager, member := helper.NewID(), helper.NewID()

		helper.SeedCollaborator(t, be, docID, manager, &types.CollaboratorFields{
			CanManage: helper.Bool(true),
		})
		helper.SeedCollaborator(t, be, docID, member, nil)

		err := collaborators.EnsureCapability(ctx, be, docID, member, types.CapabilityResolve)
		assert.ErrorIs(t, err, collaborators.ErrPermissionDenied)

		_, err = collaborators.UpdateCollaborator(ctx, be, docID, member, manager, &types.CollaboratorFields{
			CanResolve: helper.Bool(true),
		})
		assert.NoError(t, err)

		assert.NoError(t, collaborators.EnsureCapability(ctx, be, docID, member, types.CapabilityResolve))
	})

	t.Run("remove is a soft revoke test", func(t *testing.T) {
		be := helper.TestBackend(t)
		docID := helper.NewID()
		manager, member := helper.NewID(), helper.NewID()

		helper.SeedCollaborator(t, be, docID, manager, &types.CollaboratorFields{
			CanManage: helper.Bool(true),
		})
		helper.SeedCollaborator(t, be, docID, member, nil)

		removed, err := collaborators.RemoveCollaborator(ctx, be, docID, member, manager)
		assert.NoError(t, err)
		assert.False(t, removed.IsActive)

		ok, err := collaborators.CheckCapability(ctx, be, docID, member, types.CapabilityComment)
		assert.NoError(t, err)
		assert.False(t, ok)

		// The revoked row is kept for attribution.
		infos, err := collaborators.ListCollaborators(ctx, be, docID)
		assert.NoError(t, err)
		assert.Len(t, infos, 2)
	})
}
