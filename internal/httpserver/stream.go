// internal/httpserver/stream.go
//
// Push channel to the presentation layer.
// Responsibilities:
//   - Hub: fan game.Updates out to every subscriber of a session.
//   - GET /game/{id}/ws:     WebSocket, inbound reveal/restart, outbound updates.
//   - GET /game/{id}/events: Server-Sent Events, outbound updates only.
//
// Notes:
//   - Each subscriber has a small buffered channel. A slow reader misses
//     updates instead of stalling the game; every update carries a full view
//     so the next one resynchronises it.
//   - Only the handler goroutine writes to a WebSocket connection.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/game"
)

const (
	subscriberBuffer = 16
	pingInterval     = 30 * time.Second
	writeWait        = 5 * time.Second
)

type subscriber struct {
	id string
	ch chan game.Update
}

// Hub routes updates to subscribers by session ID. It implements game.Listener.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in a session. The returned cancel func must be
// called once the subscriber is done.
func (h *Hub) Subscribe(sessionID string) (<-chan game.Update, func()) {
	sub := &subscriber{id: xid.New().String(), ch: make(chan game.Update, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	log.Debug().Str("sessionId", sessionID).Str("sub", sub.id).Msg("subscribed")
	return sub.ch, func() {
		h.mu.Lock()
		delete(h.subs[sessionID], sub)
		if len(h.subs[sessionID]) == 0 {
			delete(h.subs, sessionID)
		}
		h.mu.Unlock()
		log.Debug().Str("sessionId", sessionID).Str("sub", sub.id).Msg("unsubscribed")
	}
}

// Notify delivers u to every subscriber of its session without blocking.
func (h *Hub) Notify(u game.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[u.View.ID] {
		select {
		case sub.ch <- u:
		default:
			log.Warn().Str("sessionId", u.View.ID).Str("sub", sub.id).Msg("subscriber full, dropping update")
		}
	}
}

// Subscribers reports how many subscribers a session has.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

// clientMessage is an inbound WebSocket frame.
type clientMessage struct {
	Type  string `json:"type"` // "reveal" | "restart"
	Index int    `json:"index"`
}

// handleWS upgrades the connection, sends the current view, then relays
// updates out and reveal/restart requests in.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.sessionError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", id).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	updates, cancel := s.hub.Subscribe(id)
	defer cancel()

	if err := conn.WriteJSON(game.Update{Kind: game.UpdateBoard, View: c.View()}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("sessionId", id).Msg("websocket read")
				}
				return
			}
			var cmdErr error
			switch msg.Type {
			case "reveal":
				_, cmdErr = s.sessions.Reveal(r.Context(), id, msg.Index)
			case "restart":
				_, cmdErr = s.sessions.Restart(r.Context(), id)
			default:
				log.Debug().Str("sessionId", id).Str("type", msg.Type).Msg("ignoring client message")
				continue
			}
			if cmdErr != nil {
				log.Warn().Err(cmdErr).Str("sessionId", id).Msg("websocket command")
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case u := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// handleEvents streams updates as Server-Sent Events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.sessionError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming_unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, cancel := s.hub.Subscribe(id)
	defer cancel()

	writeEvent(w, game.Update{Kind: game.UpdateBoard, View: c.View()})
	flusher.Flush()

	for {
		select {
		case u := <-updates:
			writeEvent(w, u)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, u game.Update) {
	data, _ := json.Marshal(u)
	w.Write([]byte("event: " + string(u.Kind) + "\n"))
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}
