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

package database

import (
	"time"

	"github.com/redline-team/redline/api/types"
)

// CommentInfo is an inline comment anchored to a range of the document.
// Comments form a thread tree via ParentID; the root of a thread has an
// empty ParentID. Comments are soft-deleted, never physically removed, so
// replies keep a resolvable parent.
type CommentInfo struct {
	// ID is the unique ID of the comment.
	ID types.ID `bson:"_id" json:"id"`

	// DocumentID is the document the comment is anchored to.
	DocumentID types.ID `bson:"document_id" json:"document_id"`

	// DocumentVersionID is the version the anchor refers to, if pinned.
	DocumentVersionID types.ID `bson:"document_version_id,omitempty" json:"document_version_id,omitempty"`

	// AuthorID is the user who wrote the comment.
	AuthorID types.ID `bson:"author_id" json:"author_id"`

	// Anchor is the range the comment refers to.
	Anchor types.Range `bson:"anchor" json:"anchor"`

	// HighlightedText is the text at the anchor when the comment was made.
	HighlightedText string `bson:"highlighted_text" json:"highlighted_text"`

	// Content is the comment body in lightweight markup.
	Content string `bson:"content" json:"content"`

	// ContentRendered is the rendered form of Content, recomputed on every
	// content update.
	ContentRendered string `bson:"content_rendered" json:"content_rendered"`

	// ParentID links a reply to its thread parent; empty for roots.
	ParentID types.ID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`

	// MentionedUsers are the users mentioned in the content.
	MentionedUsers []types.ID `bson:"mentioned_users,omitempty" json:"mentioned_users,omitempty"`

	// Status is the thread lifecycle state. A resolved thread may be
	// reopened.
	Status types.CommentStatus `bson:"status" json:"status"`

	// IsEdited is set once the content has been updated.
	IsEdited bool `bson:"is_edited" json:"is_edited"`

	// EditCount is the number of content updates.
	EditCount int `bson:"edit_count" json:"edit_count"`

	// IsDeleted marks a soft-deleted comment.
	IsDeleted bool `bson:"is_deleted" json:"is_deleted"`

	// CreatedAt is the time the comment was created.
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// UpdatedAt is the time the comment was last modified.
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DeepCopy returns a deep copy of this CommentInfo.
func (i *CommentInfo) DeepCopy() *CommentInfo {
	if i == nil {
		return nil
	}

	clone := *i
	if i.MentionedUsers != nil {
		clone.MentionedUsers = make([]types.ID, len(i.MentionedUsers))
		copy(clone.MentionedUsers, i.MentionedUsers)
	}
	return &clone
}

// IsRoot returns whether this comment starts a thread.
func (i *CommentInfo) IsRoot() bool {
	return i.ParentID == ""
}
