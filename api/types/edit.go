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

package types

import "fmt"

// ChangeType classifies an edit proposed as a suggestion or track change.
type ChangeType string

const (
	// ChangeTypeInsertion inserts text at the anchor.
	ChangeTypeInsertion ChangeType = "insertion"

	// ChangeTypeDeletion removes the anchored text.
	ChangeTypeDeletion ChangeType = "deletion"

	// ChangeTypeReplacement replaces the anchored text.
	ChangeTypeReplacement ChangeType = "replacement"

	// ChangeTypeFormatting changes formatting without altering text.
	ChangeTypeFormatting ChangeType = "formatting"
)

// ParseChangeType converts the given string to a ChangeType.
func ParseChangeType(s string) (ChangeType, error) {
	switch ChangeType(s) {
	case ChangeTypeInsertion, ChangeTypeDeletion, ChangeTypeReplacement, ChangeTypeFormatting:
		return ChangeType(s), nil
	}

	return "", fmt.Errorf("unknown change type %q", s)
}

// SuggestionStatus is the lifecycle state of a suggestion.
type SuggestionStatus string

const (
	// SuggestionPending means the suggestion awaits a decision.
	SuggestionPending SuggestionStatus = "pending"

	// SuggestionAccepted means the suggestion was accepted.
	SuggestionAccepted SuggestionStatus = "accepted"

	// SuggestionRejected means the suggestion was rejected.
	SuggestionRejected SuggestionStatus = "rejected"
)

// CommentStatus is the lifecycle state of a comment thread.
type CommentStatus string

const (
	// CommentOpen means the thread is awaiting discussion.
	CommentOpen CommentStatus = "open"

	// CommentResolved means the thread was resolved.
	CommentResolved CommentStatus = "resolved"

	// CommentDismissed means the thread was dismissed without action.
	CommentDismissed CommentStatus = "dismissed"
)

// ParseCommentStatus converts the given string to a CommentStatus.
func ParseCommentStatus(s string) (CommentStatus, error) {
	switch CommentStatus(s) {
	case CommentOpen, CommentResolved, CommentDismissed:
		return CommentStatus(s), nil
	}

	return "", fmt.Errorf("unknown comment status %q", s)
}
