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

// Package suggestions provides the suggestion engine business logic. A
// suggestion is a proposed edit that requires an explicit accept or reject
// decision; accepting one does not touch canonical content, which is the
// caller's responsibility.
package suggestions

import (
	"context"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/internal/validation"
	pkgerrors "github.com/redline-team/redline/pkg/errors"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/documents"
)

// CreateFields carries the caller-provided fields of a new suggestion.
type CreateFields struct {
	DocumentID        types.ID
	DocumentVersionID types.ID
	AuthorID          types.ID
	Range             types.Range
	OriginalText      string           `validate:"max=50000"`
	SuggestedText     string           `validate:"max=50000"`
	ChangeType        types.ChangeType `validate:"required"`
	Comment           string           `validate:"max=2000"`
}

// Validate returns an InvalidArgument error when a user-supplied field is
// out of bounds.
func (f *CreateFields) Validate() error {
	if err := validation.ValidateStruct(f); err != nil {
		return pkgerrors.InvalidArgument(err.Error()).WithCode("ErrInvalidFields")
	}
	return nil
}

// Create stores a new pending suggestion. It fails when the author lacks the
// suggest capability, the document is locked, or suggestions are disabled.
func Create(
	ctx context.Context,
	be *backend.Backend,
	fields CreateFields,
) (*database.SuggestionInfo, error) {
	if err := fields.Range.Validate(); err != nil {
		return nil, err
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := collaborators.EnsureCapability(
		ctx, be, fields.DocumentID, fields.AuthorID, types.CapabilitySuggest,
	); err != nil {
		return nil, err
	}

	locker := docLockKey(fields.DocumentID)
	be.Lockers.Lock(locker)
	defer unlock(be, locker)

	if err := documents.EnsureSuggestionsWritable(ctx, be, fields.DocumentID); err != nil {
		return nil, err
	}

	info, err := be.DB.CreateSuggestionInfo(ctx, &database.SuggestionInfo{
		DocumentID:        fields.DocumentID,
		DocumentVersionID: fields.DocumentVersionID,
		AuthorID:          fields.AuthorID,
		Range:             fields.Range,
		OriginalText:      fields.OriginalText,
		SuggestedText:     fields.SuggestedText,
		ChangeType:        fields.ChangeType,
		Comment:           fields.Comment,
	})
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.SuggestionCreatedEvent, info.DocumentID, info.AuthorID, info.ID, info)
	return info, nil
}

// Resolve records the accept or reject decision for a pending suggestion.
// It requires the resolve capability and fails with ErrAlreadyResolved once
// a decision has been recorded.
func Resolve(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	accept bool,
	resolvedBy types.ID,
	comment string,
) (*database.SuggestionInfo, error) {
	info, err := be.DB.FindSuggestionInfo(ctx, id)
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

	resolved, err := be.DB.ResolveSuggestionInfo(ctx, id, accept, resolvedBy, comment)
	if err != nil {
		return nil, err
	}

	be.PublishDocEvent(ctx, events.SuggestionResolvedEvent, resolved.DocumentID, resolvedBy, resolved.ID, resolved)
	return resolved, nil
}

// List returns the suggestions of the document, optionally filtered by
// status.
func List(
	ctx context.Context,
	be *backend.Backend,
	docID types.ID,
	status types.SuggestionStatus,
) ([]*database.SuggestionInfo, error) {
	return be.DB.ListSuggestionInfos(ctx, docID, status)
}

func docLockKey(docID types.ID) string {
	return "doc/" + docID.String()
}

func unlock(be *backend.Backend, name string) {
	_ = be.Lockers.Unlock(name)
}
