// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Board" mode.
// Exposes two endpoints under /daily:
//   - GET  /daily     → today's date key and board size
//   - POST /daily/new → start a session on today's board
//
// Every daily session started on the same UTC date gets the same layout:
// the shuffle is seeded from date + salt (see internal/daily).

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/memory/internal/session"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/", s.handleDailyInfo)
		r.Post("/new", s.handleDailyNew)
	})
}

// dailyInfoRes is returned by GET /daily.
type dailyInfoRes struct {
	Date  string `json:"date"`
	Pairs int    `json:"pairs"`
}

func (s *Server) handleDailyInfo(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(dailyInfoRes{Date: s.sessions.Today(), Pairs: s.sessions.Pairs()})
}

// handleDailyNew behaves like POST /game/new with mode "daily".
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	s.startSession(w, r, session.ModeDaily)
}
