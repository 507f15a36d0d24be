// internal/httpserver/server.go
//
// HTTP server wiring for the memory game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", POST /game/new.
//   - Session endpoints (session token required): view, reveal, restart, delete.
//   - Streams (session token required): /game/{id}/ws, /game/{id}/events.
//   - Daily board endpoints: mounted under /daily.
//
// Notes:
//   - A rejected reveal (locked board, matched tile, same tile twice, out of
//     range) is not an HTTP error: the response is 200 with the unchanged view.
//   - Streams are registered outside the Timeout group; they are long-lived.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/session"
)

// Options configures the HTTP layer.
type Options struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ClientOrigin  string
	SecureCookies bool
}

// Server bundles router, session manager, and stream hub.
type Server struct {
	r        *chi.Mux
	sessions *session.Manager
	hub      *Hub
	opts     Options
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(mgr *session.Manager, hub *Hub, opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "dev_secret_change_me"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}

	s := &Server{r: chi.NewRouter(), sessions: mgr, hub: hub, opts: opts}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)       // zerolog access line per request
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"memory-go","endpoints":["/health","POST /game/new","POST /game/{id}/reveal","POST /game/{id}/restart","/game/{id}/ws","/daily"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/symbols", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"symbols": s.sessions.Symbols(), "pairs": s.sessions.Pairs()})
		})

		// Game endpoints
		r.Post("/game/new", s.handleNewGame)
		r.With(s.requireSession).Get("/game/{id}", s.handleView)
		r.With(s.requireSession).Post("/game/{id}/reveal", s.handleReveal)
		r.With(s.requireSession).Post("/game/{id}/restart", s.handleRestart)
		r.With(s.requireSession).Delete("/game/{id}", s.handleDelete)

		// Daily board
		s.mountDaily(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
		})
	})

	// Streams
	s.r.With(s.requireSession).Get("/game/{id}/ws", s.handleWS)
	s.r.With(s.requireSession).Get("/game/{id}/events", s.handleEvents)

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.opts.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOrigin admits same-origin and configured-origin WebSocket upgrades.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.opts.ClientOrigin || origin == "http://"+r.Host || origin == "https://"+r.Host
}

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Mode string `json:"mode"` // "classic" (default) | "daily"
}
type newGameRes struct {
	GameID string    `json:"gameId"`
	Token  string    `json:"token"`
	View   game.View `json:"view"`
}

// handleNewGame starts a session and hands out its token (body and cookie).
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.startSession(w, r, req.Mode)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, mode string) {
	c, err := s.sessions.Create(r.Context(), mode)
	if errors.Is(err, session.ErrUnknownMode) {
		http.Error(w, `{"error":"unknown_mode"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("create session")
		http.Error(w, `{"error":"create_failed"}`, http.StatusInternalServerError)
		return
	}
	tok, exp, err := s.signToken(c.ID())
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setSessionCookie(w, tok, exp)
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: c.ID(), Token: tok, View: c.View()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(c.View())
}

// revealReq is the payload for POST /game/{id}/reveal.
type revealReq struct {
	Index *int `json:"index"`
}

// handleReveal is "tile N clicked".
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.Index == nil {
		http.Error(w, `{"error":"missing_index"}`, http.StatusBadRequest)
		return
	}
	v, err := s.sessions.Reveal(r.Context(), chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// handleRestart is "restart requested".
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.sessionError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// sessionError maps manager errors to HTTP responses.
func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("session lookup")
	http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
}
