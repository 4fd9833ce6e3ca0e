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

// Package rpc provides the HTTP surface of the collaboration core: JSON
// endpoints for each operation and a websocket stream of document events.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/pkg/errors"
	"github.com/redline-team/redline/server/backend"
	"github.com/redline-team/redline/server/logging"
)

// Server is the HTTP server that exposes the collaboration operations.
type Server struct {
	conf       *Config
	backend    *backend.Backend
	httpServer *http.Server
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend) (*Server, error) {
	rpcServer := &Server{
		conf:    conf,
		backend: be,
	}

	apiMux := http.NewServeMux()
	rpcServer.registerSessionRoutes(apiMux)
	rpcServer.registerCollaboratorRoutes(apiMux)
	rpcServer.registerSuggestionRoutes(apiMux)
	rpcServer.registerChangeRoutes(apiMux)
	rpcServer.registerCommentRoutes(apiMux)
	rpcServer.registerDocumentRoutes(apiMux)

	// The health check is the only route outside the identity boundary.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rpcServer.handleHealth)
	mux.Handle("/", auth(be.Config.SecretKey, apiMux))

	rpcServer.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Port),
		Handler: mux,
	}
	return rpcServer, nil
}

// Start starts this server by opening a listener on the configured port.
func (s *Server) Start() error {
	go func() {
		logging.DefaultLogger().Infof("serving RPC on %d", s.conf.Port)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.DefaultLogger().Errorf("HTTP server ListenAndServe: %v", err)
		}
	}()
	return nil
}

// Shutdown shuts down this server.
func (s *Server) Shutdown(graceful bool) {
	if graceful {
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
		}
		return
	}

	if err := s.httpServer.Close(); err != nil {
		logging.DefaultLogger().Errorf("HTTP server close: %v", err)
	}
}

// Handler returns the HTTP handler of this server for testing purposes.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.From(r.Context()).Errorf("encode response: %v", err)
	}

	if s.backend.Metrics != nil {
		s.backend.Metrics.AddServerHandledCounter(r.Method+" "+r.URL.Path, "ok")
	}
}

// errorResponse is the JSON shape of every error the server returns.
type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.StatusOf(err)

	if status.IsServerError() {
		logging.From(r.Context()).Error(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorResponse{
		Status:  status.String(),
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	})
}

func (s *Server) writeErrorCounted(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err)
	if s.backend.Metrics != nil {
		s.backend.Metrics.AddServerHandledCounter(
			r.Method+" "+r.URL.Path,
			errors.StatusOf(err).String(),
		)
	}
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return errors.InvalidArgument(
			fmt.Sprintf("decode request body: %v", err),
		).WithCode("ErrInvalidRequest")
	}
	return nil
}

func invalidArgument(err error) error {
	return errors.InvalidArgument(err.Error()).WithCode("ErrInvalidRequest")
}

func pathID(r *http.Request, name string) types.ID {
	return types.ID(r.PathValue(name))
}
