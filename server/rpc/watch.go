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
	"time"

	"github.com/gorilla/websocket"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/server/logging"
	"github.com/redline-team/redline/server/sessions"
)

const (
	// writeWait is the time allowed to write an event to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientMessage is what a watcher may send upstream: cursor movements and
// liveness heartbeats. Everything else flows through the JSON endpoints.
type clientMessage struct {
	Type      string          `json:"type"`
	Cursor    types.Position  `json:"cursor"`
	Selection *types.Range    `json:"selection,omitempty"`
	Viewport  *types.Viewport `json:"viewport,omitempty"`
}

// handleWatchDocument joins the document as an editing session and streams
// the document's events over a websocket until the peer disconnects. The
// session is left, and its departure published, when the stream ends.
func (s *Server) handleWatchDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID := pathID(r, "docID")
	userID := UserIDFromCtx(ctx)
	versionID := types.ID(r.URL.Query().Get("version_id"))

	session, err := sessions.Join(ctx, s.backend, docID, userID, versionID)
	if err != nil {
		s.writeErrorCounted(w, r, err)
		return
	}

	// The subscription is keyed by the session so that the echo exclusion
	// stays per device; a user's other sessions still receive the events
	// this one publishes.
	sub, err := s.backend.PubSub.Subscribe(
		ctx, session.ID, docID, s.backend.Config.SubscriberLimitPerDocument,
	)
	if err != nil {
		_ = sessions.Leave(ctx, s.backend, session.ID)
		s.writeErrorCounted(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.backend.PubSub.Unsubscribe(ctx, docID, sub)
		_ = sessions.Leave(ctx, s.backend, session.ID)
		logging.From(ctx).Warnf("upgrade watch stream: %v", err)
		return
	}

	if s.backend.Metrics != nil {
		s.backend.Metrics.AddWatchStreamConnections(s.backend.Config.Hostname)
	}
	defer func() {
		s.backend.PubSub.Unsubscribe(ctx, docID, sub)
		if err := sessions.Leave(ctx, s.backend, session.ID); err != nil {
			logging.From(ctx).Warnf("leave session %s: %v", session.ID, err)
		}
		if s.backend.Metrics != nil {
			s.backend.Metrics.RemoveWatchStreamConnections(s.backend.Config.Hostname)
		}
		_ = conn.Close()
	}()

	// The session record itself tells the peer its session id.
	if err := conn.WriteJSON(session); err != nil {
		return
	}

	done := make(chan struct{})
	go s.writeEvents(conn, sub.Events(), done)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			close(done)
			return
		}

		switch msg.Type {
		case "cursor":
			if err := sessions.UpdateCursor(
				ctx, s.backend, session.ID, msg.Cursor, msg.Selection, msg.Viewport,
			); err != nil {
				logging.From(ctx).Debugf("cursor update: %v", err)
			}
		case "heartbeat":
			if _, err := sessions.Heartbeat(ctx, s.backend, session.ID); err != nil {
				logging.From(ctx).Debugf("heartbeat: %v", err)
			}
		}
	}
}

func (s *Server) writeEvents(
	conn *websocket.Conn,
	eventCh <-chan events.DocEvent,
	done <-chan struct{},
) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-eventCh:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
