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

// Package mongo implements database interfaces using MongoDB.
package mongo

import (
	"context"
	"fmt"
	gotime "time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/logging"
)

const grantCacheSize = 1000

// Client is a client that connects to Mongo DB and reads or saves Redline
// data.
type Client struct {
	config *Config
	client *mongo.Client

	// grantCache caches active collaborator grants by (document, user). The
	// capability check runs before every mutation, so it is the hottest read.
	grantCache *lru.Cache[string, *database.CollaboratorInfo]
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(conf.ConnectionURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancel()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.RedlineDatabase)); err != nil {
		return nil, err
	}

	grantCache, err := lru.New[string, *database.CollaboratorInfo](grantCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialize grant cache: %w", err)
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.RedlineDatabase)

	return &Client{
		config:     conf,
		client:     client,
		grantCache: grantCache,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	return nil
}

// CreateSessionInfo creates an editing session for the given user on the
// given document.
func (c *Client) CreateSessionInfo(
	ctx context.Context,
	docID types.ID,
	userID types.ID,
	versionID types.ID,
) (*database.SessionInfo, error) {
	now := gotime.Now()
	info := &database.SessionInfo{
		ID:                newID(),
		DocumentID:        docID,
		DocumentVersionID: versionID,
		UserID:            userID,
		JoinedAt:          now,
		LastSeenAt:        now,
	}

	if _, err := c.collection(ColSessions).InsertOne(ctx, info); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return info, nil
}

// FindSessionInfo finds the session of the given id.
func (c *Client) FindSessionInfo(
	ctx context.Context,
	sessionID types.ID,
) (*database.SessionInfo, error) {
	result := c.collection(ColSessions).FindOne(ctx, bson.M{"_id": sessionID})

	info := database.SessionInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("decode session info: %w", err)
	}

	return &info, nil
}

// UpdateSessionCursor stores the cursor, optional selection and viewport of
// the session and refreshes its liveness timestamp.
func (c *Client) UpdateSessionCursor(
	ctx context.Context,
	sessionID types.ID,
	cursor types.Position,
	selection *types.Range,
	viewport *types.Viewport,
) (*database.SessionInfo, error) {
	set := bson.M{
		"cursor":       cursor,
		"last_seen_at": gotime.Now(),
	}
	unset := bson.M{}
	if selection != nil {
		set["selection"] = selection
	} else {
		unset["selection"] = ""
	}
	if viewport != nil {
		set["viewport"] = viewport
	} else {
		unset["viewport"] = ""
	}

	result := c.collection(ColSessions).FindOneAndUpdate(
		ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": set, "$unset": unset},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.SessionInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("decode session info: %w", err)
	}

	return &info, nil
}

// TouchSessionInfo refreshes the liveness timestamp of the session.
func (c *Client) TouchSessionInfo(
	ctx context.Context,
	sessionID types.ID,
) (*database.SessionInfo, error) {
	result := c.collection(ColSessions).FindOneAndUpdate(
		ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": bson.M{"last_seen_at": gotime.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.SessionInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("decode session info: %w", err)
	}

	return &info, nil
}

// RemoveSessionInfo removes the session of the given id.
func (c *Client) RemoveSessionInfo(
	ctx context.Context,
	sessionID types.ID,
) (*database.SessionInfo, error) {
	result := c.collection(ColSessions).FindOneAndDelete(ctx, bson.M{"_id": sessionID})

	info := database.SessionInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find session %s: %w", sessionID, database.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("decode session info: %w", err)
	}

	return &info, nil
}

// FindActiveSessionInfos returns the sessions of the document whose liveness
// timestamp is no older than the given threshold.
func (c *Client) FindActiveSessionInfos(
	ctx context.Context,
	docID types.ID,
	lastSeenAfter gotime.Time,
) ([]*database.SessionInfo, error) {
	cursor, err := c.collection(ColSessions).Find(ctx, bson.M{
		"document_id":  docID,
		"last_seen_at": bson.M{"$gte": lastSeenAfter},
	}, options.Find().SetSort(bson.M{"joined_at": 1}))
	if err != nil {
		return nil, fmt.Errorf("find sessions of %s: %w", docID, err)
	}

	var infos []*database.SessionInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch session infos: %w", err)
	}

	return infos, nil
}

// FindStaleSessionInfos returns up to limit sessions across all documents
// whose liveness timestamp is older than the given time.
func (c *Client) FindStaleSessionInfos(
	ctx context.Context,
	lastSeenBefore gotime.Time,
	limit int,
) ([]*database.SessionInfo, error) {
	opts := options.Find().SetSort(bson.M{"last_seen_at": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := c.collection(ColSessions).Find(ctx, bson.M{
		"last_seen_at": bson.M{"$lt": lastSeenBefore},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("find stale sessions: %w", err)
	}

	var infos []*database.SessionInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch session infos: %w", err)
	}

	return infos, nil
}

// CreateCollaboratorInfo creates a collaborator grant for the (document,
// user) pair. A revoked grant for the same pair is reactivated in place so
// the pair stays unique.
func (c *Client) CreateCollaboratorInfo(
	ctx context.Context,
	docID types.ID,
	userID types.ID,
	invitedBy types.ID,
	fields *types.CollaboratorFields,
) (*database.CollaboratorInfo, error) {
	c.grantCache.Remove(grantKey(docID, userID))

	result := c.collection(ColCollaborators).FindOne(ctx, bson.M{
		"document_id": docID,
		"user_id":     userID,
	})

	now := gotime.Now()
	existing := database.CollaboratorInfo{}
	if err := result.Decode(&existing); err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("decode collaborator info: %w", err)
		}

		info := &database.CollaboratorInfo{
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
		if fields != nil {
			info.ApplyFields(fields)
		}

		if _, err := c.collection(ColCollaborators).InsertOne(ctx, info); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("%s/%s: %w", docID, userID, database.ErrCollaboratorExists)
			}
			return nil, fmt.Errorf("insert collaborator: %w", err)
		}
		return info, nil
	}

	if existing.IsActive {
		return nil, fmt.Errorf("%s/%s: %w", docID, userID, database.ErrCollaboratorExists)
	}

	info := existing.DeepCopy()
	info.IsActive = true
	info.InvitedBy = invitedBy
	info.ExpiresAt = nil
	info.UpdatedAt = now
	if fields != nil {
		info.ApplyFields(fields)
	}

	if _, err := c.collection(ColCollaborators).ReplaceOne(ctx, bson.M{
		"_id": info.ID,
	}, info); err != nil {
		return nil, fmt.Errorf("reactivate collaborator: %w", err)
	}

	return info, nil
}

// FindCollaboratorInfo finds the active grant for the (document, user) pair.
func (c *Client) FindCollaboratorInfo(
	ctx context.Context,
	docID types.ID,
	userID types.ID,
) (*database.CollaboratorInfo, error) {
	if info, ok := c.grantCache.Get(grantKey(docID, userID)); ok {
		return info.DeepCopy(), nil
	}

	result := c.collection(ColCollaborators).FindOne(ctx, bson.M{
		"document_id": docID,
		"user_id":     userID,
		"is_active":   true,
	})

	info := database.CollaboratorInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, database.ErrCollaboratorNotFound)
		}
		return nil, fmt.Errorf("decode collaborator info: %w", err)
	}

	c.grantCache.Add(grantKey(docID, userID), info.DeepCopy())
	return &info, nil
}

// UpdateCollaboratorInfo updates the capabilities or expiry of the active
// grant for the (document, user) pair.
func (c *Client) UpdateCollaboratorInfo(
	ctx context.Context,
	docID types.ID,
	userID types.ID,
	fields *types.CollaboratorFields,
) (*database.CollaboratorInfo, error) {
	c.grantCache.Remove(grantKey(docID, userID))

	set := bson.M{"updated_at": gotime.Now()}
	if fields.CanEdit != nil {
		set["can_edit"] = *fields.CanEdit
	}
	if fields.CanSuggest != nil {
		set["can_suggest"] = *fields.CanSuggest
	}
	if fields.CanComment != nil {
		set["can_comment"] = *fields.CanComment
	}
	if fields.CanResolve != nil {
		set["can_resolve"] = *fields.CanResolve
	}
	if fields.CanManage != nil {
		set["can_manage"] = *fields.CanManage
	}
	if fields.ExpiresAt != nil {
		set["expires_at"] = *fields.ExpiresAt
	}

	result := c.collection(ColCollaborators).FindOneAndUpdate(
		ctx,
		bson.M{
			"document_id": docID,
			"user_id":     userID,
			"is_active":   true,
		},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.CollaboratorInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, database.ErrCollaboratorNotFound)
		}
		return nil, fmt.Errorf("decode collaborator info: %w", err)
	}

	return &info, nil
}

// DeactivateCollaboratorInfo revokes the active grant for the (document,
// user) pair. The row is kept to preserve attribution.
func (c *Client) DeactivateCollaboratorInfo(
	ctx context.Context,
	docID types.ID,
	userID types.ID,
) (*database.CollaboratorInfo, error) {
	c.grantCache.Remove(grantKey(docID, userID))

	result := c.collection(ColCollaborators).FindOneAndUpdate(
		ctx,
		bson.M{
			"document_id": docID,
			"user_id":     userID,
			"is_active":   true,
		},
		bson.M{"$set": bson.M{
			"is_active":  false,
			"updated_at": gotime.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.CollaboratorInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find collaborator %s/%s: %w", docID, userID, database.ErrCollaboratorNotFound)
		}
		return nil, fmt.Errorf("decode collaborator info: %w", err)
	}

	return &info, nil
}

// ListCollaboratorInfos returns the grants of the document, active ones
// first.
func (c *Client) ListCollaboratorInfos(
	ctx context.Context,
	docID types.ID,
) ([]*database.CollaboratorInfo, error) {
	cursor, err := c.collection(ColCollaborators).Find(ctx, bson.M{
		"document_id": docID,
	}, options.Find().SetSort(bson.D{
		{Key: "is_active", Value: -1},
		{Key: "created_at", Value: 1},
	}))
	if err != nil {
		return nil, fmt.Errorf("find collaborators of %s: %w", docID, err)
	}

	var infos []*database.CollaboratorInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch collaborator infos: %w", err)
	}

	return infos, nil
}

// CreateSuggestionInfo stores the given pending suggestion.
func (c *Client) CreateSuggestionInfo(
	ctx context.Context,
	info *database.SuggestionInfo,
) (*database.SuggestionInfo, error) {
	clone := info.DeepCopy()
	clone.ID = newID()
	clone.Status = types.SuggestionPending
	clone.ResolvedBy = ""
	clone.ResolvedAt = nil
	clone.ResolutionComment = ""
	clone.CreatedAt = gotime.Now()

	if _, err := c.collection(ColSuggestions).InsertOne(ctx, clone); err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}

	return clone, nil
}

// FindSuggestionInfo finds the suggestion of the given id.
func (c *Client) FindSuggestionInfo(
	ctx context.Context,
	id types.ID,
) (*database.SuggestionInfo, error) {
	result := c.collection(ColSuggestions).FindOne(ctx, bson.M{"_id": id})

	info := database.SuggestionInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find suggestion %s: %w", id, database.ErrSuggestionNotFound)
		}
		return nil, fmt.Errorf("decode suggestion info: %w", err)
	}

	return &info, nil
}

// ResolveSuggestionInfo records the accept/reject decision for a pending
// suggestion.
func (c *Client) ResolveSuggestionInfo(
	ctx context.Context,
	id types.ID,
	accept bool,
	resolvedBy types.ID,
	comment string,
) (*database.SuggestionInfo, error) {
	status := types.SuggestionRejected
	if accept {
		status = types.SuggestionAccepted
	}

	// The pending filter makes the transition first-writer-wins.
	result := c.collection(ColSuggestions).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":    id,
			"status": types.SuggestionPending,
		},
		bson.M{"$set": bson.M{
			"status":             status,
			"resolved_by":        resolvedBy,
			"resolved_at":        gotime.Now(),
			"resolution_comment": comment,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.SuggestionInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			if _, err := c.FindSuggestionInfo(ctx, id); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("resolve suggestion %s: %w", id, database.ErrAlreadyResolved)
		}
		return nil, fmt.Errorf("decode suggestion info: %w", err)
	}

	return &info, nil
}

// ListSuggestionInfos returns the suggestions of the document, optionally
// filtered by status.
func (c *Client) ListSuggestionInfos(
	ctx context.Context,
	docID types.ID,
	status types.SuggestionStatus,
) ([]*database.SuggestionInfo, error) {
	filter := bson.M{"document_id": docID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := c.collection(ColSuggestions).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.M{"created_at": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find suggestions of %s: %w", docID, err)
	}

	var infos []*database.SuggestionInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch suggestion infos: %w", err)
	}

	return infos, nil
}

// CountPendingSuggestions returns the number of pending suggestions of the
// document.
func (c *Client) CountPendingSuggestions(ctx context.Context, docID types.ID) (int, error) {
	count, err := c.collection(ColSuggestions).CountDocuments(ctx, bson.M{
		"document_id": docID,
		"status":      types.SuggestionPending,
	})
	if err != nil {
		return 0, fmt.Errorf("count pending suggestions of %s: %w", docID, err)
	}

	return int(count), nil
}

// CreateChangeInfo stores the given pending track change, assigning the next
// sequence number of the document.
func (c *Client) CreateChangeInfo(
	ctx context.Context,
	info *database.ChangeInfo,
) (*database.ChangeInfo, error) {
	seq, err := c.nextSequenceNumber(ctx, info.DocumentID)
	if err != nil {
		return nil, err
	}

	clone := info.DeepCopy()
	clone.ID = newID()
	clone.SequenceNumber = seq
	clone.IsAccepted = nil
	clone.AcceptedBy = ""
	clone.AcceptedAt = nil
	clone.CreatedAt = gotime.Now()

	if _, err := c.collection(ColChanges).InsertOne(ctx, clone); err != nil {
		return nil, fmt.Errorf("insert change: %w", err)
	}

	return clone, nil
}

// FindChangeInfo finds the track change of the given id.
func (c *Client) FindChangeInfo(
	ctx context.Context,
	id types.ID,
) (*database.ChangeInfo, error) {
	result := c.collection(ColChanges).FindOne(ctx, bson.M{"_id": id})

	info := database.ChangeInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find change %s: %w", id, database.ErrChangeNotFound)
		}
		return nil, fmt.Errorf("decode change info: %w", err)
	}

	return &info, nil
}

// ResolveChangeInfo records the accept/reject decision for a pending track
// change.
func (c *Client) ResolveChangeInfo(
	ctx context.Context,
	id types.ID,
	accept bool,
	resolvedBy types.ID,
) (*database.ChangeInfo, error) {
	result := c.collection(ColChanges).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":         id,
			"is_accepted": bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{
			"is_accepted": accept,
			"accepted_by": resolvedBy,
			"accepted_at": gotime.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.ChangeInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			if _, err := c.FindChangeInfo(ctx, id); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("resolve change %s: %w", id, database.ErrAlreadyResolved)
		}
		return nil, fmt.Errorf("decode change info: %w", err)
	}

	return &info, nil
}

// withTransaction runs fn inside a mongo session transaction. Bulk
// resolution must be all-or-nothing, so a crash mid-update never leaves a
// group half-resolved.
func (c *Client) withTransaction(
	ctx context.Context,
	fn func(ctx context.Context) (int, error),
) (int, error) {
	session, err := c.client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return 0, err
	}

	return result.(int), nil
}

// ResolveChangeGroup resolves every still-pending member of the group to the
// same decision and returns the number affected.
func (c *Client) ResolveChangeGroup(
	ctx context.Context,
	docID types.ID,
	groupID string,
	accept bool,
	resolvedBy types.ID,
) (int, error) {
	return c.withTransaction(ctx, func(ctx context.Context) (int, error) {
		members, err := c.collection(ColChanges).CountDocuments(ctx, bson.M{
			"document_id": docID,
			"group_id":    groupID,
		})
		if err != nil {
			return 0, fmt.Errorf("count change group %s/%s: %w", docID, groupID, err)
		}
		if members == 0 {
			return 0, fmt.Errorf("find change group %s/%s: %w", docID, groupID, database.ErrChangeGroupNotFound)
		}

		result, err := c.collection(ColChanges).UpdateMany(
			ctx,
			bson.M{
				"document_id": docID,
				"group_id":    groupID,
				"is_accepted": bson.M{"$exists": false},
			},
			bson.M{"$set": bson.M{
				"is_accepted": accept,
				"accepted_by": resolvedBy,
				"accepted_at": gotime.Now(),
			}},
		)
		if err != nil {
			return 0, fmt.Errorf("resolve change group %s/%s: %w", docID, groupID, err)
		}

		return int(result.ModifiedCount), nil
	})
}

// ResolveAllChanges resolves every pending track change of the document to
// the same decision and returns the number affected.
func (c *Client) ResolveAllChanges(
	ctx context.Context,
	docID types.ID,
	accept bool,
	resolvedBy types.ID,
) (int, error) {
	return c.withTransaction(ctx, func(ctx context.Context) (int, error) {
		result, err := c.collection(ColChanges).UpdateMany(
			ctx,
			bson.M{
				"document_id": docID,
				"is_accepted": bson.M{"$exists": false},
			},
			bson.M{"$set": bson.M{
				"is_accepted": accept,
				"accepted_by": resolvedBy,
				"accepted_at": gotime.Now(),
			}},
		)
		if err != nil {
			return 0, fmt.Errorf("resolve all changes of %s: %w", docID, err)
		}

		return int(result.ModifiedCount), nil
	})
}

// ListChangeInfos returns the track changes of the document in sequence
// number order.
func (c *Client) ListChangeInfos(
	ctx context.Context,
	docID types.ID,
	pendingOnly bool,
) ([]*database.ChangeInfo, error) {
	filter := bson.M{"document_id": docID}
	if pendingOnly {
		filter["is_accepted"] = bson.M{"$exists": false}
	}

	cursor, err := c.collection(ColChanges).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.M{"sequence_number": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find changes of %s: %w", docID, err)
	}

	var infos []*database.ChangeInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch change infos: %w", err)
	}

	return infos, nil
}

// CountPendingChanges returns the number of pending track changes of the
// document.
func (c *Client) CountPendingChanges(ctx context.Context, docID types.ID) (int, error) {
	count, err := c.collection(ColChanges).CountDocuments(ctx, bson.M{
		"document_id": docID,
		"is_accepted": bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("count pending changes of %s: %w", docID, err)
	}

	return int(count), nil
}

// CreateCommentInfo stores the given comment. If the comment is a reply, the
// parent must exist on the same document and not be deleted.
func (c *Client) CreateCommentInfo(
	ctx context.Context,
	info *database.CommentInfo,
) (*database.CommentInfo, error) {
	if info.ParentID != "" {
		parent, err := c.FindCommentInfo(ctx, info.ParentID)
		if err != nil {
			return nil, err
		}
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

	if _, err := c.collection(ColComments).InsertOne(ctx, clone); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	return clone, nil
}

// FindCommentInfo finds the comment of the given id.
func (c *Client) FindCommentInfo(
	ctx context.Context,
	id types.ID,
) (*database.CommentInfo, error) {
	result := c.collection(ColComments).FindOne(ctx, bson.M{"_id": id})

	info := database.CommentInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find comment %s: %w", id, database.ErrCommentNotFound)
		}
		return nil, fmt.Errorf("decode comment info: %w", err)
	}

	return &info, nil
}

// UpdateCommentContent replaces the content of the comment.
func (c *Client) UpdateCommentContent(
	ctx context.Context,
	id types.ID,
	authorID types.ID,
	content string,
	contentRendered string,
	mentionedUsers []types.ID,
) (*database.CommentInfo, error) {
	result := c.collection(ColComments).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":        id,
			"author_id":  authorID,
			"is_deleted": false,
		},
		bson.M{
			"$set": bson.M{
				"content":          content,
				"content_rendered": contentRendered,
				"mentioned_users":  mentionedUsers,
				"is_edited":        true,
				"updated_at":       gotime.Now(),
			},
			"$inc": bson.M{"edit_count": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.CommentInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, c.commentMutationError(ctx, id, authorID, "update")
		}
		return nil, fmt.Errorf("decode comment info: %w", err)
	}

	return &info, nil
}

// UpdateCommentStatus transitions the thread status.
func (c *Client) UpdateCommentStatus(
	ctx context.Context,
	id types.ID,
	status types.CommentStatus,
) (*database.CommentInfo, error) {
	result := c.collection(ColComments).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":        id,
			"is_deleted": false,
		},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": gotime.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.CommentInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			found, ferr := c.FindCommentInfo(ctx, id)
			if ferr != nil {
				return nil, ferr
			}
			if found.IsDeleted {
				return nil, fmt.Errorf("update comment %s: %w", id, database.ErrCommentDeleted)
			}
			return nil, fmt.Errorf("update comment %s: %w", id, database.ErrCommentNotFound)
		}
		return nil, fmt.Errorf("decode comment info: %w", err)
	}

	return &info, nil
}

// SoftDeleteCommentInfo marks the comment deleted while keeping it
// addressable as a parent.
func (c *Client) SoftDeleteCommentInfo(
	ctx context.Context,
	id types.ID,
	authorID types.ID,
) (*database.CommentInfo, error) {
	result := c.collection(ColComments).FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":        id,
			"author_id":  authorID,
			"is_deleted": false,
		},
		bson.M{"$set": bson.M{
			"is_deleted": true,
			"updated_at": gotime.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	info := database.CommentInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, c.commentMutationError(ctx, id, authorID, "delete")
		}
		return nil, fmt.Errorf("decode comment info: %w", err)
	}

	return &info, nil
}

// ListCommentInfos returns the comments of the document in creation order.
func (c *Client) ListCommentInfos(
	ctx context.Context,
	docID types.ID,
	includeDeleted bool,
) ([]*database.CommentInfo, error) {
	filter := bson.M{"document_id": docID}
	if !includeDeleted {
		filter["is_deleted"] = false
	}

	cursor, err := c.collection(ColComments).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.M{"created_at": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find comments of %s: %w", docID, err)
	}

	var infos []*database.CommentInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch comment infos: %w", err)
	}

	return infos, nil
}

// CountOpenComments returns the number of open, non-deleted comments of the
// document.
func (c *Client) CountOpenComments(ctx context.Context, docID types.ID) (int, error) {
	count, err := c.collection(ColComments).CountDocuments(ctx, bson.M{
		"document_id": docID,
		"status":      types.CommentOpen,
		"is_deleted":  false,
	})
	if err != nil {
		return 0, fmt.Errorf("count open comments of %s: %w", docID, err)
	}

	return int(count), nil
}

// FindDocStateInfo returns the collaborative state row of the document, or
// the defaults if none exists.
func (c *Client) FindDocStateInfo(
	ctx context.Context,
	docID types.ID,
) (*database.DocStateInfo, error) {
	result := c.collection(ColDocStates).FindOne(ctx, bson.M{"_id": docID})

	info := database.DocStateInfo{}
	if err := result.Decode(&info); err != nil {
		if err == mongo.ErrNoDocuments {
			return database.DefaultDocStateInfo(docID), nil
		}
		return nil, fmt.Errorf("decode doc state info: %w", err)
	}

	return &info, nil
}

// LockDocumentState upserts the state row with the lock fields set.
func (c *Client) LockDocumentState(
	ctx context.Context,
	docID types.ID,
	lockedBy types.ID,
	reason string,
) (*database.DocStateInfo, error) {
	now := gotime.Now()
	result := c.collection(ColDocStates).FindOneAndUpdate(
		ctx,
		bson.M{"_id": docID},
		bson.M{
			"$set": bson.M{
				"is_locked":   true,
				"locked_by":   lockedBy,
				"locked_at":   now,
				"lock_reason": reason,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{
				"track_changes_enabled": true,
				"suggestions_enabled":   true,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	info := database.DocStateInfo{}
	if err := result.Decode(&info); err != nil {
		return nil, fmt.Errorf("lock document %s: %w", docID, err)
	}

	return &info, nil
}

// UnlockDocumentState clears the lock fields of the state row.
func (c *Client) UnlockDocumentState(
	ctx context.Context,
	docID types.ID,
) (*database.DocStateInfo, error) {
	result := c.collection(ColDocStates).FindOneAndUpdate(
		ctx,
		bson.M{"_id": docID},
		bson.M{
			"$set": bson.M{
				"is_locked":  false,
				"updated_at": gotime.Now(),
			},
			"$unset": bson.M{
				"locked_by":   "",
				"locked_at":   "",
				"lock_reason": "",
			},
			"$setOnInsert": bson.M{
				"track_changes_enabled": true,
				"suggestions_enabled":   true,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	info := database.DocStateInfo{}
	if err := result.Decode(&info); err != nil {
		return nil, fmt.Errorf("unlock document %s: %w", docID, err)
	}

	return &info, nil
}

// UpdateDocStateSettings updates the feature toggles of the state row.
func (c *Client) UpdateDocStateSettings(
	ctx context.Context,
	docID types.ID,
	fields *types.DocSettingFields,
) (*database.DocStateInfo, error) {
	set := bson.M{"updated_at": gotime.Now()}
	setOnInsert := bson.M{"is_locked": false}
	if fields.TrackChangesEnabled != nil {
		set["track_changes_enabled"] = *fields.TrackChangesEnabled
	} else {
		setOnInsert["track_changes_enabled"] = true
	}
	if fields.SuggestionsEnabled != nil {
		set["suggestions_enabled"] = *fields.SuggestionsEnabled
	} else {
		setOnInsert["suggestions_enabled"] = true
	}

	result := c.collection(ColDocStates).FindOneAndUpdate(
		ctx,
		bson.M{"_id": docID},
		bson.M{
			"$set":         set,
			"$setOnInsert": setOnInsert,
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	info := database.DocStateInfo{}
	if err := result.Decode(&info); err != nil {
		return nil, fmt.Errorf("update doc state %s: %w", docID, err)
	}

	return &info, nil
}

// commentMutationError reports why an author-gated comment mutation matched
// nothing.
func (c *Client) commentMutationError(
	ctx context.Context,
	id types.ID,
	authorID types.ID,
	op string,
) error {
	found, err := c.FindCommentInfo(ctx, id)
	if err != nil {
		return err
	}
	if found.IsDeleted {
		return fmt.Errorf("%s comment %s: %w", op, id, database.ErrCommentDeleted)
	}
	if found.AuthorID != authorID {
		return fmt.Errorf("%s comment %s: %w", op, id, database.ErrNotAuthor)
	}
	return fmt.Errorf("%s comment %s: %w", op, id, database.ErrCommentNotFound)
}

// nextSequenceNumber atomically increments and returns the per-document
// sequence counter.
func (c *Client) nextSequenceNumber(ctx context.Context, docID types.ID) (int64, error) {
	result := c.collection(ColCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": docID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	counter := struct {
		Seq int64 `bson:"seq"`
	}{}
	if err := result.Decode(&counter); err != nil {
		return 0, fmt.Errorf("next sequence number of %s: %w", docID, err)
	}

	return counter.Seq, nil
}

func (c *Client) collection(
	name string,
	opts ...options.Lister[options.CollectionOptions],
) *mongo.Collection {
	return c.client.
		Database(c.config.RedlineDatabase).
		Collection(name, opts...)
}

func grantKey(docID types.ID, userID types.ID) string {
	return docID.String() + "/" + userID.String()
}

func newID() types.ID {
	return types.ID(bson.NewObjectID().Hex())
}
