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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// ColSessions represents the sessions collection in the database.
	ColSessions = "sessions"
	// ColCollaborators represents the collaborators collection in the database.
	ColCollaborators = "collaborators"
	// ColSuggestions represents the suggestions collection in the database.
	ColSuggestions = "suggestions"
	// ColChanges represents the changes collection in the database.
	ColChanges = "changes"
	// ColComments represents the comments collection in the database.
	ColComments = "comments"
	// ColDocStates represents the docstates collection in the database.
	ColDocStates = "docstates"
	// ColCounters represents the per-document sequence counter collection.
	ColCounters = "counters"
)

// Collections represents the list of all collections in the database.
var Collections = []string{
	ColSessions,
	ColCollaborators,
	ColSuggestions,
	ColChanges,
	ColComments,
	ColDocStates,
	ColCounters,
}

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// Below are names and indexes information of Collections that stores Redline data.
var collectionInfos = []collectionInfo{
	{
		name: ColSessions,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{{Key: "document_id", Value: int32(1)}},
		}, {
			Keys: bson.D{{Key: "last_seen_at", Value: int32(1)}},
		}},
	},
	{
		name: ColCollaborators,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "document_id", Value: int32(1)},
				{Key: "user_id", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: ColSuggestions,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "document_id", Value: int32(1)},
				{Key: "status", Value: int32(1)},
			},
		}},
	},
	{
		name: ColChanges,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "document_id", Value: int32(1)},
				{Key: "sequence_number", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}, {
			Keys: bson.D{
				{Key: "document_id", Value: int32(1)},
				{Key: "group_id", Value: int32(1)},
			},
		}},
	},
	{
		name: ColComments,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "document_id", Value: int32(1)},
				{Key: "created_at", Value: int32(1)},
			},
		}, {
			Keys: bson.D{{Key: "parent_id", Value: int32(1)}},
		}},
	},
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, info := range collectionInfos {
		if len(info.indexes) == 0 {
			continue
		}
		if _, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes); err != nil {
			return fmt.Errorf("create indexes of %s: %w", info.name, err)
		}
	}
	return nil
}
