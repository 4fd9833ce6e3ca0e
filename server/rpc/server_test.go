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

package rpc_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/backend/database"
	"github.com/redline-team/redline/server/rpc"
	"github.com/redline-team/redline/test/helper"
)

func setupTestServer(t *testing.T) (*httptest.Server, *backend.Backend) {
	be := helper.TestBackend(t)

	rpcServer, err := rpc.NewServer(&rpc.Config{Port: 8080}, be)
	assert.NoError(t, err)

	httpServer := httptest.NewServer(rpcServer.Handler())
	t.Cleanup(httpServer.Close)
	return httpServer, be
}

func doRequest(
	t *testing.T,
	server *httptest.Server,
	be *backend.Backend,
	userID types.ID,
	method, path string,
	body any,
) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, server.URL+path, &buf)
	assert.NoError(t, err)

	if userID != "" {
		token, err := rpc.IssueToken(be.Config.SecretKey, userID, time.Minute)
		assert.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	assert.NoError(t, err)
	return resp
}

func TestServer(t *testing.T) {
	t.Run("health check needs no token test", func(t *testing.T) {
		server, be := setupTestServer(t)

		resp := doRequest(t, server, be, "", http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("missing token is rejected test", func(t *testing.T) {
		server, be := setupTestServer(t)
		docID := helper.NewID()

		resp := doRequest(t, server, be, "", http.MethodGet,
			"/documents/"+docID.String()+"/summary", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("join and leave session test", func(t *testing.T) {
		server, be := setupTestServer(t)
		docID, userID := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, userID, nil)

		resp := doRequest(t, server, be, userID, http.MethodPost,
			"/documents/"+docID.String()+"/sessions", nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var session database.SessionInfo
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, userID, session.UserID)

		resp = doRequest(t, server, be, userID, http.MethodDelete,
			"/sessions/"+session.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("join without grant maps to forbidden test", func(t *testing.T) {
		server, be := setupTestServer(t)
		docID, userID := helper.NewID(), helper.NewID()

		resp := doRequest(t, server, be, userID, http.MethodPost,
			"/documents/"+docID.String()+"/sessions", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var errResp struct {
			Status string `json:"status"`
			Code   string `json:"code"`
		}
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, "permission_denied", errResp.Status)
		assert.Equal(t, "ErrPermissionDenied", errResp.Code)
	})

	t.Run("suggestion lifecycle over HTTP test", func(t *testing.T) {
		server, be := setupTestServer(t)
		docID, author, reviewer := helper.NewID(), helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, author, nil)
		helper.SeedCollaborator(t, be, docID, reviewer, &types.CollaboratorFields{
			CanResolve: helper.Bool(true),
		})

		resp := doRequest(t, server, be, author, http.MethodPost,
			"/documents/"+docID.String()+"/suggestions", map[string]any{
				"range": types.Range{
					Start: types.Position{Line: 0, Column: 0, Offset: 0},
					End:   types.Position{Line: 0, Column: 3, Offset: 3},
				},
				"original_text":  "teh",
				"suggested_text": "the",
				"change_type":    "replacement",
			})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var suggestion database.SuggestionInfo
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&suggestion))
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, types.SuggestionPending, suggestion.Status)

		resp = doRequest(t, server, be, reviewer, http.MethodPost,
			"/suggestions/"+suggestion.ID.String()+"/resolve", map[string]any{
				"accept": true,
			})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var resolved database.SuggestionInfo
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&resolved))
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, types.SuggestionAccepted, resolved.Status)

		// A second decision maps to conflict.
		resp = doRequest(t, server, be, reviewer, http.MethodPost,
			"/suggestions/"+suggestion.ID.String()+"/resolve", map[string]any{
				"accept": false,
			})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("summary over HTTP test", func(t *testing.T) {
		server, be := setupTestServer(t)
		docID, userID := helper.NewID(), helper.NewID()
		helper.SeedCollaborator(t, be, docID, userID, nil)

		resp := doRequest(t, server, be, userID, http.MethodGet,
			"/documents/"+docID.String()+"/summary", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var summary types.CollaborationSummary
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
		assert.NoError(t, resp.Body.Close())
		assert.Equal(t, docID, summary.DocumentID)
		assert.True(t, summary.SuggestionsEnabled)
	})
}
