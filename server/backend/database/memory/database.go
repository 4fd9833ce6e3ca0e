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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	"sort"
	gotime "time"

	"github.com/hashicorp/go-memdb"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// CreateSessionInfo creates an editing session for the given user on the
// given document.
func (d *DB) CreateSessionInfo(
	_ context.Context,
	docID types.ID,
	userID types.ID,
	versionID types.ID,
) (*database.SessionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	now := gotime.Now()
	info := &database.SessionInfo{
		ID:                newID(),
		DocumentID:        docID,
		DocumentVersionID: versionID,
		UserID:            userID,
		JoinedAt:          now,
		LastSeenAt:        now,
	}
	if err := txn.Insert(tblSessions, info); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindSessionInfo finds the session of the given id.
func (d *DB) FindSessionInfo(
	_ context.Context,
	sessionID types.ID,
) (*database.SessionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblSessions, "id", sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
	}

	return raw.(*database.SessionInfo).DeepCopy(), nil
}

// UpdateSessionCursor stores the cursor, optional selection and viewport of
// the session and refreshes its liveness timestamp.
func (d *DB) UpdateSessionCursor(
	_ context.Context,
	sessionID types.ID,
	cursor types.Position,
	selection *types.Range,
	viewport *types.Viewport,
) (*database.SessionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSessions, "id", sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
	}

	info := raw.(*database.SessionInfo).DeepCopy()
	info.Cursor = cursor
	info.Selection = selection
	info.Viewport = viewport
	info.LastSeenAt = gotime.Now()
	if err := txn.Insert(tblSessions, info); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// TouchSessionInfo refreshes the liveness timestamp of the session.
func (d *DB) TouchSessionInfo(
	_ context.Context,
	sessionID types.ID,
) (*database.SessionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSessions, "id", sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
	}

	info := raw.(*database.SessionInfo).DeepCopy()
	info.LastSeenAt = gotime.Now()
	if err := txn.Insert(tblSessions, info); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// RemoveSessionInfo removes the session of the given id.
func (d *DB) RemoveSessionInfo(
	_ context.Context,
	sessionID types.ID,
) (*database.SessionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSessions, "id", sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
	}

	info := raw.(*database.SessionInfo)
	if err := txn.Delete(tblSessions, info); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindActiveSessionInfos returns the sessions of the document whose liveness
// timestamp is no older than the given threshold.
func (d *DB) FindActiveSessionInfos(
	_ context.Context,
	docID types.ID,
	lastSeenAfter gotime.Time,
) ([]*database.SessionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblSessions, "doc_id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("find sessions of %s: %w", docID, err)
	}

	var infos []*database.SessionInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.SessionInfo)
		if info.LastSeenAt.Before(lastSeenAfter) {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].JoinedAt.Before(infos[j].JoinedAt)
	})
	return infos, nil
}

// FindStaleSessionInfos returns up to limit sessions across all documents
// whose liveness timestamp is older than the given time.
func (d *DB) FindStaleSessionInfos(
	_ context.Context,
	lastSeenBefore gotime.Time,
	limit int,
) ([]*database.SessionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblSessions, "last_seen_at")
	if err != nil {
		return nil, fmt.Errorf("find stale sessions: %w", err)
	}

	var infos []*database.SessionInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.SessionInfo)
		if !info.LastSeenAt.Before(lastSeenBefore) {
			break
		}
		infos = append(infos, info.DeepCopy())
		if limit > 0 && len(infos) >= limit {
			break
		}
	}
	return infos, nil
}

// CreateCollaboratorInfo creates a collaborator grant for the (document,
// user) pair. A revoked grant for the same pair is reactivated in place so
// the pair stays unique.
func (d *DB) CreateCollaboratorInfo(
	_ context.Context,
	docID types.ID,
	userID types.ID,
	invitedBy types.ID,
	fields *types.CollaboratorFields,
) (*database.CollaboratorInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	now := gotime.Now()
	raw, err := txn.First(tblCollaborators, "doc_id_user_id", docID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, err)
	}

	var info *database.CollaboratorInfo
	if raw != nil {
		existing := raw.(*database.CollaboratorInfo)
		if existing.IsActive {
			return nil, fmt.Errorf("%s/%s: %w", docID, userID, database.ErrCollaboratorExists)
		}

		info = existing.DeepCopy()
		info.IsActive = true
		info.InvitedBy = invitedBy
		info.ExpiresAt = nil
		info.UpdatedAt = now
	} else {
		info = &database.CollaboratorInfo{
			ID:         newID(),
			DocumentID: docID,
			UserID:     userID,
			InvitedBy:  invitedBy,
			IsActive:   true,
			CanSuggest: true,
			CanComment: true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	if fields != nil {
		info.ApplyFields(fields)
	}

	if err := txn.Insert(tblCollaborators, info); err != nil {
		return nil, fmt.Errorf("insert collaborator: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindCollaboratorInfo finds the active grant for the (document, user) pair.
func (d *DB) FindCollaboratorInfo(
	_ context.Context,
	docID types.ID,
	userID types.ID,
) (*database.CollaboratorInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblCollaborators, "doc_id_user_id", docID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, err)
	}
	if raw == nil || !raw.(*database.CollaboratorInfo).IsActive {
		return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, database.ErrCollaboratorNotFound)
	}

	return raw.(*database.CollaboratorInfo).DeepCopy(), nil
}

// UpdateCollaboratorInfo updates the capabilities or expiry of the active
// grant for the (document, user) pair.
func (d *DB) UpdateCollaboratorInfo(
	_ context.Context,
	docID types.ID,
	userID types.ID,
	fields *types.CollaboratorFields,
) (*database.CollaboratorInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblCollaborators, "doc_id_user_id", docID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, err)
	}
	if raw == nil || !raw.(*database.CollaboratorInfo).IsActive {
		return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, database.ErrCollaboratorNotFound)
	}

	info := raw.(*database.CollaboratorInfo).DeepCopy()
	info.ApplyFields(fields)
	info.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblCollaborators, info); err != nil {
		return nil, fmt.Errorf("update collaborator: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// DeactivateCollaboratorInfo revokes the active grant for the (document,
// user) pair. The row is kept to preserve attribution.
func (d *DB) DeactivateCollaboratorInfo(
	_ context.Context,
	docID types.ID,
	userID types.ID,
) (*database.CollaboratorInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblCollaborators, "doc_id_user_id", docID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, err)
	}
	if raw == nil || !raw.(*database.CollaboratorInfo).IsActive {
		return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, database.ErrCollaboratorNotFound)
	}

	info := raw.(*database.CollaboratorInfo).DeepCopy()
	info.IsActive = false
	info.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblCollaborators, info); err != nil {
		return nil, fmt.Errorf("deactivate collaborator: %w", err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// ListCollaboratorInfos returns the grants of the document, active ones
// first.
func (d *DB) ListCollaboratorInfos(
	_ context.Context,
	docID types.ID,
) ([]*database.CollaboratorInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblCollaborators, "doc_id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("list collaborators of %s: %w", docID, err)
	}

	var infos []*database.CollaboratorInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.CollaboratorInfo).DeepCopy())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].IsActive != infos[j].IsActive {
			return infos[i].IsActive
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// CreateSuggestionInfo stores the given pending suggestion.
func (d *DB) CreateSuggestionInfo(
	_ context.Context,
	info *database.SuggestionInfo,
) (*database.SuggestionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	clone := info.DeepCopy()
	clone.ID = newID()
	clone.Status = types.SuggestionPending
	clone.ResolvedBy = ""
	clone.ResolvedAt = nil
	clone.ResolutionComment = ""
	clone.CreatedAt = gotime.Now()
	if err := txn.Insert(tblSuggestions, clone); err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// FindSuggestionInfo finds the suggestion of the given id.
func (d *DB) FindSuggestionInfo(
	_ context.Context,
	id types.ID,
) (*database.SuggestionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblSuggestions, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find suggestion %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find suggestion %s: %w", id, database.ErrSuggestionNotFound)
	}

	return raw.(*database.SuggestionInfo).DeepCopy(), nil
}

// ResolveSuggestionInfo records the accept/reject decision for a pending
// suggestion.
func (d *DB) ResolveSuggestionInfo(
	_ context.Context,
	id types.ID,
	accept bool,
	resolvedBy types.ID,
	comment string,
) (*database.SuggestionInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSuggestions, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find suggestion %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find suggestion %s: %w", id, database.ErrSuggestionNotFound)
	}

	info := raw.(*database.SuggestionInfo)
	if !info.IsPending() {
		return nil, fmt.Errorf("resolve suggestion %s: %w", id, database.ErrAlreadyResolved)
	}

	now := gotime.Now()
	clone := info.DeepCopy()
	if accept {
		clone.Status = types.SuggestionAccepted
	} else {
		clone.Status = types.SuggestionRejected
	}
	clone.ResolvedBy = resolvedBy
	clone.ResolvedAt = &now
	clone.ResolutionComment = comment
	if err := txn.Insert(tblSuggestions, clone); err != nil {
		return nil, fmt.Errorf("resolve suggestion: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// ListSuggestionInfos returns the suggestions of the document, optionally
// filtered by status.
func (d *DB) ListSuggestionInfos(
	_ context.Context,
	docID types.ID,
	status types.SuggestionStatus,
) ([]*database.SuggestionInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblSuggestions, "doc_id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("list suggestions of %s: %w", docID, err)
	}

	var infos []*database.SuggestionInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.SuggestionInfo)
		if status != "" && info.Status != status {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// CountPendingSuggestions returns the number of pending suggestions of the
// document.
func (d *DB) CountPendingSuggestions(_ context.Context, docID types.ID) (int, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblSuggestions, "doc_id_status", docID.String(), string(types.SuggestionPending))
	if err != nil {
		return 0, fmt.Errorf("count pending suggestions of %s: %w", docID, err)
	}

	count := 0
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		count++
	}
	return count, nil
}

// CreateChangeInfo stores the given pending track change, assigning the next
// sequence number of the document.
func (d *DB) CreateChangeInfo(
	_ context.Context,
	info *database.ChangeInfo,
) (*database.ChangeInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	iter, err := txn.Get(tblChanges, "doc_id", info.DocumentID.String())
	if err != nil {
		return nil, fmt.Errorf("find changes of %s: %w", info.DocumentID, err)
	}
	var maxSeq int64
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		if seq := raw.(*database.ChangeInfo).SequenceNumber; seq > maxSeq {
			maxSeq = seq
		}
	}

	clone := info.DeepCopy()
	clone.ID = newID()
	clone.SequenceNumber = maxSeq + 1
	clone.IsAccepted = nil
	clone.AcceptedBy = ""
	clone.AcceptedAt = nil
	clone.CreatedAt = gotime.Now()
	if err := txn.Insert(tblChanges, clone); err != nil {
		return nil, fmt.Errorf("insert change: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// FindChangeInfo finds the track change of the given id.
func (d *DB) FindChangeInfo(
	_ context.Context,
	id types.ID,
) (*database.ChangeInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblChanges, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find change %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find change %s: %w", id, database.ErrChangeNotFound)
	}

	return raw.(*database.ChangeInfo).DeepCopy(), nil
}

// ResolveChangeInfo records the accept/reject decision for a pending track
// change.
func (d *DB) ResolveChangeInfo(
	_ context.Context,
	id types.ID,
	accept bool,
	resolvedBy types.ID,
) (*database.ChangeInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblChanges, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find change %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find change %s: %w", id, database.ErrChangeNotFound)
	}

	info := raw.(*database.ChangeInfo)
	if !info.IsPending() {
		return nil, fmt.Errorf("resolve change %s: %w", id, database.ErrAlreadyResolved)
	}

	clone := resolveChange(info, accept, resolvedBy, gotime.Now())
	if err := txn.Insert(tblChanges, clone); err != nil {
		return nil, fmt.Errorf("resolve change: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// ResolveChangeGroup resolves every still-pending member of the group to the
// same decision and returns the number affected. All members are updated in
// one transaction.
func (d *DB) ResolveChangeGroup(
	_ context.Context,
	docID types.ID,
	groupID string,
	accept bool,
	resolvedBy types.ID,
) (int, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	iter, err := txn.Get(tblChanges, "doc_id_group_id", docID.String(), groupID)
	if err != nil {
		return 0, fmt.Errorf("find change group %s/%s: %w", docID, groupID, err)
	}

	var members []*database.ChangeInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		members = append(members, raw.(*database.ChangeInfo))
	}
	if len(members) == 0 {
		return 0, fmt.Errorf("find change group %s/%s: %w", docID, groupID, database.ErrChangeGroupNotFound)
	}

	now := gotime.Now()
	count := 0
	for _, member := range members {
		if !member.IsPending() {
			continue
		}
		if err := txn.Insert(tblChanges, resolveChange(member, accept, resolvedBy, now)); err != nil {
			return 0, fmt.Errorf("resolve change group: %w", err)
		}
		count++
	}
	txn.Commit()

	return count, nil
}

// ResolveAllChanges resolves every pending track change of the document to
// the same decision and returns the number affected.
func (d *DB) ResolveAllChanges(
	_ context.Context,
	docID types.ID,
	accept bool,
	resolvedBy types.ID,
) (int, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	iter, err := txn.Get(tblChanges, "doc_id", docID.String())
	if err != nil {
		return 0, fmt.Errorf("find changes of %s: %w", docID, err)
	}

	var pending []*database.ChangeInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		if info := raw.(*database.ChangeInfo); info.IsPending() {
			pending = append(pending, info)
		}
	}

	now := gotime.Now()
	for _, info := range pending {
		if err := txn.Insert(tblChanges, resolveChange(info, accept, resolvedBy, now)); err != nil {
			return 0, fmt.Errorf("resolve all changes: %w", err)
		}
	}
	txn.Commit()

	return len(pending), nil
}

// ListChangeInfos returns the track changes of the document in sequence
// number order.
func (d *DB) ListChangeInfos(
	_ context.Context,
	docID types.ID,
	pendingOnly bool,
) ([]*database.ChangeInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblChanges, "doc_id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("list changes of %s: %w", docID, err)
	}

	var infos []*database.ChangeInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.ChangeInfo)
		if pendingOnly && !info.IsPending() {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].SequenceNumber < infos[j].SequenceNumber
	})
	return infos, nil
}

// CountPendingChanges returns the number of pending track changes of the
// document.
func (d *DB) CountPendingChanges(_ context.Context, docID types.ID) (int, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblChanges, "doc_id", docID.String())
	if err != nil {
		return 0, fmt.Errorf("count pending changes of %s: %w", docID, err)
	}

	count := 0
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		if raw.(*database.ChangeInfo).IsPending() {
			count++
		}
	}
	return count, nil
}

// CreateCommentInfo stores the given comment. If the comment is a reply, the
// parent must exist on the same document and not be deleted.
func (d *DB) CreateCommentInfo(
	_ context.Context,
	info *database.CommentInfo,
) (*database.CommentInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if info.ParentID != "" {
		raw, err := txn.First(tblComments, "id", info.ParentID.String())
		if err != nil {
			return nil, fmt.Errorf("find parent comment %s: %w", info.ParentID, err)
		}
		if raw == nil {
			return nil, fmt.Errorf("find parent comment %s: %w", info.ParentID, database.ErrCommentNotFound)
		}

		parent := raw.(*database.CommentInfo)
		if parent.DocumentID != info.DocumentID {
			return nil, fmt.Errorf("parent comment %s: %w", info.ParentID, database.ErrParentMismatch)
		}
		if parent.IsDeleted {
			return nil, fmt.Errorf("parent comment %s: %w", info.ParentID, database.ErrCommentDeleted)
		}
	}

	now := gotime.Now()
	clone := info.DeepCopy()
	clone.ID = newID()
	clone.Status = types.CommentOpen
	clone.IsEdited = false
	clone.EditCount = 0
	clone.IsDeleted = false
	clone.CreatedAt = now
	clone.UpdatedAt = now
	if err := txn.Insert(tblComments, clone); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// FindCommentInfo finds the comment of the given id.
func (d *DB) FindCommentInfo(
	_ context.Context,
	id types.ID,
) (*database.CommentInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblComments, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find comment %s: %w", id, database.ErrCommentNotFound)
	}

	return raw.(*database.CommentInfo).DeepCopy(), nil
}

// UpdateCommentContent replaces the content of the comment.
func (d *DB) UpdateCommentContent(
	_ context.Context,
	id types.ID,
	authorID types.ID,
	content string,
	contentRendered string,
	mentionedUsers []types.ID,
) (*database.CommentInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblComments, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find comment %s: %w", id, database.ErrCommentNotFound)
	}

	info := raw.(*database.CommentInfo)
	if info.IsDeleted {
		return nil, fmt.Errorf("update comment %s: %w", id, database.ErrCommentDeleted)
	}
	if info.AuthorID != authorID {
		return nil, fmt.Errorf("update comment %s: %w", id, database.ErrNotAuthor)
	}

	clone := info.DeepCopy()
	clone.Content = content
	clone.ContentRendered = contentRendered
	clone.MentionedUsers = mentionedUsers
	clone.IsEdited = true
	clone.EditCount++
	clone.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblComments, clone); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// UpdateCommentStatus transitions the thread status.
func (d *DB) UpdateCommentStatus(
	_ context.Context,
	id types.ID,
	status types.CommentStatus,
) (*database.CommentInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblComments, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find comment %s: %w", id, database.ErrCommentNotFound)
	}

	info := raw.(*database.CommentInfo)
	if info.IsDeleted {
		return nil, fmt.Errorf("update comment %s: %w", id, database.ErrCommentDeleted)
	}

	clone := info.DeepCopy()
	clone.Status = status
	clone.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblComments, clone); err != nil {
		return nil, fmt.Errorf("update comment status: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// SoftDeleteCommentInfo marks the comment deleted while keeping it
// addressable as a parent.
func (d *DB) SoftDeleteCommentInfo(
	_ context.Context,
	id types.ID,
	authorID types.ID,
) (*database.CommentInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblComments, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find comment %s: %w", id, database.ErrCommentNotFound)
	}

	info := raw.(*database.CommentInfo)
	if info.IsDeleted {
		return nil, fmt.Errorf("delete comment %s: %w", id, database.ErrCommentDeleted)
	}
	if info.AuthorID != authorID {
		return nil, fmt.Errorf("delete comment %s: %w", id, database.ErrNotAuthor)
	}

	clone := info.DeepCopy()
	clone.IsDeleted = true
	clone.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblComments, clone); err != nil {
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	txn.Commit()

	return clone.DeepCopy(), nil
}

// ListCommentInfos returns the comments of the document in creation order.
func (d *DB) ListCommentInfos(
	_ context.Context,
	docID types.ID,
	includeDeleted bool,
) ([]*database.CommentInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblComments, "doc_id_created_at_prefix", docID.String())
	if err != nil {
		return nil, fmt.Errorf("list comments of %s: %w", docID, err)
	}

	var infos []*database.CommentInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.CommentInfo)
		if info.IsDeleted && !includeDeleted {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}
	return infos, nil
}

// CountOpenComments returns the number of open, non-deleted comments of the
// document.
func (d *DB) CountOpenComments(_ context.Context, docID types.ID) (int, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblComments, "doc_id", docID.String())
	if err != nil {
		return 0, fmt.Errorf("count open comments of %s: %w", docID, err)
	}

	count := 0
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.CommentInfo)
		if info.IsDeleted || info.Status != types.CommentOpen {
			continue
		}
		count++
	}
	return count, nil
}

// FindDocStateInfo returns the collaborative state row of the document, or
// the defaults if none exists.
func (d *DB) FindDocStateInfo(
	_ context.Context,
	docID types.ID,
) (*database.DocStateInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocStates, "id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("find doc state %s: %w", docID, err)
	}
	if raw == nil {
		return database.DefaultDocStateInfo(docID), nil
	}

	return raw.(*database.DocStateInfo).DeepCopy(), nil
}

// LockDocumentState upserts the state row with the lock fields set.
func (d *DB) LockDocumentState(
	_ context.Context,
	docID types.ID,
	lockedBy types.ID,
	reason string,
) (*database.DocStateInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	info, err := d.docStateForUpdate(txn, docID)
	if err != nil {
		return nil, err
	}

	now := gotime.Now()
	info.IsLocked = true
	info.LockedBy = lockedBy
	info.LockedAt = &now
	info.LockReason = reason
	info.UpdatedAt = now
	if err := txn.Insert(tblDocStates, info); err != nil {
		return nil, fmt.Errorf("lock document %s: %w", docID, err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// UnlockDocumentState clears the lock fields of the state row.
func (d *DB) UnlockDocumentState(
	_ context.Context,
	docID types.ID,
) (*database.DocStateInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	info, err := d.docStateForUpdate(txn, docID)
	if err != nil {
		return nil, err
	}

	info.IsLocked = false
	info.LockedBy = ""
	info.LockedAt = nil
	info.LockReason = ""
	info.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblDocStates, info); err != nil {
		return nil, fmt.Errorf("unlock document %s: %w", docID, err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// UpdateDocStateSettings updates the feature toggles of the state row.
func (d *DB) UpdateDocStateSettings(
	_ context.Context,
	docID types.ID,
	fields *types.DocSettingFields,
) (*database.DocStateInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	info, err := d.docStateForUpdate(txn, docID)
	if err != nil {
		return nil, err
	}

	info.ApplySettings(fields)
	info.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblDocStates, info); err != nil {
		return nil, fmt.Errorf("update doc state %s: %w", docID, err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// docStateForUpdate returns a copy of the state row to modify, defaulted if
// absent.
func (d *DB) docStateForUpdate(txn *memdb.Txn, docID types.ID) (*database.DocStateInfo, error) {
	raw, err := txn.First(tblDocStates, "id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("find doc state %s: %w", docID, err)
	}
	if raw == nil {
		return database.DefaultDocStateInfo(docID), nil
	}
	return raw.(*database.DocStateInfo).DeepCopy(), nil
}

// resolveChange returns a resolved copy of the given pending change.
func resolveChange(
	info *database.ChangeInfo,
	accept bool,
	resolvedBy types.ID,
	at gotime.Time,
) *database.ChangeInfo {
	clone := info.DeepCopy()
	clone.IsAccepted = &accept
	clone.AcceptedBy = resolvedBy
	t := at
	clone.AcceptedAt = &t
	return clone
}

func newID() types.ID {
	return types.ID(bson.NewObjectID().Hex())
}
