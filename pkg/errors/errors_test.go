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

package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/pkg/errors"
)

func TestStatusError(t *testing.T) {
	t.Run("status and code test", func(t *testing.T) {
		err := errors.FailedPrecond("suggestion already resolved").WithCode("ErrAlreadyResolved")

		assert.Equal(t, errors.ErrCodeFailedPrecondition, err.Status())
		assert.Equal(t, "ErrAlreadyResolved", err.Code())
		assert.Equal(t, "suggestion already resolved", err.Error())
	})

	t.Run("status survives wrapping test", func(t *testing.T) {
		base := errors.PermissionDenied("comment capability required").WithCode("ErrPermissionDenied")
		wrapped := fmt.Errorf("create comment: %w", base)

		assert.Equal(t, errors.ErrCodePermissionDenied, errors.StatusOf(wrapped))
		assert.Equal(t, "ErrPermissionDenied", errors.CodeOf(wrapped))
		assert.True(t, errors.IsClientError(wrapped))
		assert.False(t, errors.IsServerError(wrapped))
	})

	t.Run("plain error has no status test", func(t *testing.T) {
		assert.Equal(t, errors.StatusCode(0), errors.StatusOf(fmt.Errorf("plain")))
		assert.Equal(t, "", errors.CodeOf(fmt.Errorf("plain")))
	})

	t.Run("http status mapping test", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, errors.ErrCodePermissionDenied.HTTPStatus())
		assert.Equal(t, http.StatusConflict, errors.ErrCodeFailedPrecondition.HTTPStatus())
		assert.Equal(t, http.StatusNotFound, errors.ErrCodeNotFound.HTTPStatus())
		assert.Equal(t, http.StatusInternalServerError, errors.ErrCodeInternal.HTTPStatus())
	})
}

func TestMetadata(t *testing.T) {
	t.Run("metadata attach and extract test", func(t *testing.T) {
		err := errors.WithMetadata(
			errors.PermissionDenied("resolve capability required"),
			map[string]string{"capability": "resolve", "document_id": "000000000000000000000001"},
		)

		meta := errors.Metadata(err)
		assert.Equal(t, "resolve", meta["capability"])
		assert.Equal(t, errors.ErrCodePermissionDenied, errors.StatusOf(err))
	})

	t.Run("metadata merge test", func(t *testing.T) {
		err := errors.WithMetadata(errors.NotFound("no such comment"), map[string]string{"a": "1"})
		err = errors.WithMetadata(err, map[string]string{"b": "2", "a": "3"})

		meta := errors.Metadata(err)
		assert.Equal(t, "3", meta["a"])
		assert.Equal(t, "2", meta["b"])
	})

	t.Run("metadata through wrapping test", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", errors.WithMetadata(
			errors.NotFound("no such session"),
			map[string]string{"session_id": "abc"},
		))

		assert.Equal(t, "abc", errors.Metadata(err)["session_id"])
	})
}
