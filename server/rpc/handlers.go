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

package rpc

import (
	"net/http"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/server/changes"
	"github.com/redline-team/redline/server/collaborators"
	"github.com/redline-team/redline/server/comments"
	"github.com/redline-team/redline/server/documents"
	"github.com/redline-team/redline/server/sessions"
	"github.com/redline-team/redline/server/suggestions"
)

func (s *Server) registerSessionRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /documents/{docID}/sessions", s.handleJoinSession)
	mux.HandleFunc("DELETE /sessions/{sessionID}", s.handleLeaveSession)
	mux.HandleFunc("POST /sessions/{sessionID}/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("POST /sessions/{sessionID}/cursor", s.handleUpdateCursor)
	mux.HandleFunc("GET /documents/{docID}/editors", s.handleListActiveEditors)
	mux.HandleFunc("GET /documents/{docID}/watch", s.handleWatchDocument)
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentVersionID types.ID `json:"document_version_id"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeErrorCounted(w, r, err)
			return
		}
	}

	session, err := sessions.Join(
		r.Context(), s.backend,
		pathID(r, "docID"), UserIDFromCtx(r.Context()), req.DocumentVersionID,
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, session)
}

func (s *Server) handleLeaveSession(w http.ResponseWriter, r *http.Request) {
	if err := sessions.Leave(r.Context(), s.backend, pathID(r, "sessionID")); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	session, err := sessions.Heartbeat(r.Context(), s.backend, pathID(r, "sessionID"))
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleUpdateCursor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cursor    types.Position  `json:"cursor"`
		Selection *types.Range    `json:"selection"`
		Viewport  *types.Viewport `json:"viewport"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	if err := sessions.UpdateCursor(
		r.Context(), s.backend, pathID(r, "sessionID"),
		req.Cursor, req.Selection, req.Viewport,
	); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleListActiveEditors(w http.ResponseWriter, r *http.Request) {
	editors, err := sessions.ListActiveEditors(r.Context(), s.backend, pathID(r, "docID"))
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, editors)
}

func (s *Server) registerCollaboratorRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /documents/{docID}/collaborators", s.handleAddCollaborator)
	mux.HandleFunc("PATCH /documents/{docID}/collaborators/{userID}", s.handleUpdateCollaborator)
	mux.HandleFunc("DELETE /documents/{docID}/collaborators/{userID}", s.handleRemoveCollaborator)
	mux.HandleFunc("GET /documents/{docID}/collaborators", s.handleListCollaborators)
}

func (s *Server) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID types.ID                  `json:"user_id"`
		Fields *types.CollaboratorFields `json:"fields"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := collaborators.AddCollaborator(
		r.Context(), s.backend,
		pathID(r, "docID"), req.UserID, UserIDFromCtx(r.Context()), req.Fields,
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, info)
}

func (s *Server) handleUpdateCollaborator(w http.ResponseWriter, r *http.Request) {
	var req types.CollaboratorFields
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := collaborators.UpdateCollaborator(
		r.Context(), s.backend,
		pathID(r, "docID"), pathID(r, "userID"), UserIDFromCtx(r.Context()), &req,
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	info, err := collaborators.RemoveCollaborator(
		r.Context(), s.backend,
		pathID(r, "docID"), pathID(r, "userID"), UserIDFromCtx(r.Context()),
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	infos, err := collaborators.ListCollaborators(r.Context(), s.backend, pathID(r, "docID"))
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, infos)
}

func (s *Server) registerSuggestionRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /documents/{docID}/suggestions", s.handleCreateSuggestion)
	mux.HandleFunc("POST /suggestions/{id}/resolve", s.handleResolveSuggestion)
	mux.HandleFunc("GET /documents/{docID}/suggestions", s.handleListSuggestions)
}

func (s *Server) handleCreateSuggestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentVersionID types.ID         `json:"document_version_id"`
		Range             types.Range      `json:"range"`
		OriginalText      string           `json:"original_text"`
		SuggestedText     string           `json:"suggested_text"`
		ChangeType        types.ChangeType `json:"change_type"`
		Comment           string           `json:"comment"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := suggestions.Create(r.Context(), s.backend, suggestions.CreateFields{
		DocumentID:        pathID(r, "docID"),
		DocumentVersionID: req.DocumentVersionID,
		AuthorID:          UserIDFromCtx(r.Context()),
		Range:             req.Range,
		OriginalText:      req.OriginalText,
		SuggestedText:     req.SuggestedText,
		ChangeType:        req.ChangeType,
		Comment:           req.Comment,
	})
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, info)
}

func (s *Server) handleResolveSuggestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accept  bool   `json:"accept"`
		Comment string `json:"comment"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := suggestions.Resolve(
		r.Context(), s.backend,
		pathID(r, "id"), req.Accept, UserIDFromCtx(r.Context()), req.Comment,
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	status := types.SuggestionStatus(r.URL.Query().Get("status"))

	infos, err := suggestions.List(r.Context(), s.backend, pathID(r, "docID"), status)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, infos)
}

func (s *Server) registerChangeRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /documents/{docID}/changes", s.handleCreateChange)
	mux.HandleFunc("POST /changes/{id}/resolve", s.handleResolveChange)
	mux.HandleFunc("POST /documents/{docID}/changes/resolve-group", s.handleResolveChangeGroup)
	mux.HandleFunc("POST /documents/{docID}/changes/resolve-all", s.handleResolveAllChanges)
	mux.HandleFunc("GET /documents/{docID}/changes", s.handleListChanges)
}

func (s *Server) handleCreateChange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentVersionID types.ID         `json:"document_version_id"`
		SessionID         types.ID         `json:"session_id"`
		Range             types.Range      `json:"range"`
		OriginalText      string           `json:"original_text"`
		NewText           string           `json:"new_text"`
		ChangeType        types.ChangeType `json:"change_type"`
		GroupID           string           `json:"group_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := changes.Create(r.Context(), s.backend, changes.CreateFields{
		DocumentID:        pathID(r, "docID"),
		DocumentVersionID: req.DocumentVersionID,
		AuthorID:          UserIDFromCtx(r.Context()),
		SessionID:         req.SessionID,
		Range:             req.Range,
		OriginalText:      req.OriginalText,
		NewText:           req.NewText,
		ChangeType:        req.ChangeType,
		GroupID:           req.GroupID,
	})
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, info)
}

func (s *Server) handleResolveChange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := changes.ResolveOne(
		r.Context(), s.backend,
		pathID(r, "id"), req.Accept, UserIDFromCtx(r.Context()),
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, info)
}

type resolveCountResponse struct {
	Count int `json:"count"`
}

func (s *Server) handleResolveChangeGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID string `json:"group_id"`
		Accept  bool   `json:"accept"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	count, err := changes.ResolveGroup(
		r.Context(), s.backend,
		pathID(r, "docID"), req.GroupID, req.Accept, UserIDFromCtx(r.Context()),
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resolveCountResponse{Count: count})
}

func (s *Server) handleResolveAllChanges(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	count, err := changes.ResolveAll(
		r.Context(), s.backend,
		pathID(r, "docID"), req.Accept, UserIDFromCtx(r.Context()),
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resolveCountResponse{Count: count})
}

func (s *Server) handleListChanges(w http.ResponseWriter, r *http.Request) {
	pendingOnly := r.URL.Query().Get("pending") == "true"

	infos, err := changes.List(r.Context(), s.backend, pathID(r, "docID"), pendingOnly)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, infos)
}

func (s *Server) registerCommentRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /documents/{docID}/comments", s.handleCreateComment)
	mux.HandleFunc("PATCH /comments/{id}", s.handleUpdateComment)
	mux.HandleFunc("POST /comments/{id}/status", s.handleUpdateCommentStatus)
	mux.HandleFunc("DELETE /comments/{id}", s.handleDeleteComment)
	mux.HandleFunc("GET /documents/{docID}/comments", s.handleListComments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentVersionID types.ID    `json:"document_version_id"`
		Anchor            types.Range `json:"anchor"`
		HighlightedText   string      `json:"highlighted_text"`
		Content           string      `json:"content"`
		ParentID          types.ID    `json:"parent_id"`
		MentionedUsers    []types.ID  `json:"mentioned_users"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := comments.Create(r.Context(), s.backend, comments.CreateFields{
		DocumentID:        pathID(r, "docID"),
		DocumentVersionID: req.DocumentVersionID,
		AuthorID:          UserIDFromCtx(r.Context()),
		Anchor:            req.Anchor,
		HighlightedText:   req.HighlightedText,
		Content:           req.Content,
		ParentID:          req.ParentID,
		MentionedUsers:    req.MentionedUsers,
	})
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, info)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content        string     `json:"content"`
		MentionedUsers []types.ID `json:"mentioned_users"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	info, err := comments.Update(
		r.Context(), s.backend,
		pathID(r, "id"), UserIDFromCtx(r.Context()), req.Content, req.MentionedUsers,
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleUpdateCommentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	status, err := types.ParseCommentStatus(req.Status)
	if err != nil {
		s.writeErrorCounted(w, r, invalidArgument(err))
		return
	}

	info, err := comments.UpdateStatus(
		r.Context(), s.backend,
		pathID(r, "id"), status, UserIDFromCtx(r.Context()),
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := comments.Delete(
		r.Context(), s.backend, pathID(r, "id"), UserIDFromCtx(r.Context()),
	); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	infos, err := comments.List(r.Context(), s.backend, pathID(r, "docID"), includeDeleted)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, infos)
}

func (s *Server) registerDocumentRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /documents/{docID}/state", s.handleFindDocState)
	mux.HandleFunc("POST /documents/{docID}/lock", s.handleLockDocument)
	mux.HandleFunc("POST /documents/{docID}/unlock", s.handleUnlockDocument)
	mux.HandleFunc("PATCH /documents/{docID}/settings", s.handleUpdateDocSettings)
	mux.HandleFunc("GET /documents/{docID}/summary", s.handleDocSummary)
}

func (s *Server) handleFindDocState(w http.ResponseWriter, r *http.Request) {
	state, err := documents.FindState(r.Context(), s.backend, pathID(r, "docID"))
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleLockDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeErrorCounted(w, r, err)
			return
		}
	}

	state, err := documents.Lock(
		r.Context(), s.backend,
		pathID(r, "docID"), UserIDFromCtx(r.Context()), req.Reason,
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleUnlockDocument(w http.ResponseWriter, r *http.Request) {
	state, err := documents.Unlock(
		r.Context(), s.backend, pathID(r, "docID"), UserIDFromCtx(r.Context()),
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleUpdateDocSettings(w http.ResponseWriter, r *http.Request) {
	var req types.DocSettingFields
	if err := decodeBody(r, &req); err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	state, err := documents.UpdateSettings(
		r.Context(), s.backend,
		pathID(r, "docID"), UserIDFromCtx(r.Context()), &req,
	)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleDocSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := documents.Summary(r.Context(), s.backend, pathID(r, "docID"))
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, summary)
}
