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

// CollaborationSummary is a derived aggregate of a document's review state.
// It is recomputed on demand and never stored.
type CollaborationSummary struct {
	DocumentID ID `json:"document_id"`

	PendingSuggestions int `json:"pending_suggestions"`
	PendingChanges     int `json:"pending_changes"`
	OpenComments       int `json:"open_comments"`
	ActiveEditors      int `json:"active_editors"`

	IsLocked            bool `json:"is_locked"`
	TrackChangesEnabled bool `json:"track_changes_enabled"`
	SuggestionsEnabled  bool `json:"suggestions_enabled"`
}
