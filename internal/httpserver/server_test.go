package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/session"
)

// stillClock never fires, so every response reflects only the synchronous
// transition triggered by the request.
type stillClock struct{}

type stillTimer struct{}

func (stillTimer) Stop() bool { return true }

func (stillClock) AfterFunc(time.Duration, func()) game.Timer { return stillTimer{} }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	hub := NewHub()
	mgr := session.NewManager(session.Config{
		Symbols:   []string{"A", "B"},
		Clock:     stillClock{},
		Listener:  hub,
		DailySalt: "test",
		Now:       func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) },
	})
	return New(mgr, hub, Options{JWTSecret: "test-secret"})
}

func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func newGame(t *testing.T, s *Server, mode string) newGameRes {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/game/new", "", `{"mode":"`+mode+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res newGameRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.GameID)
	require.NotEmpty(t, res.Token)
	return res
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) game.View {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v game.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestNewGame(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/game/new", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res newGameRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, session.ModeClassic, res.View.Mode)
	require.Len(t, res.View.Tiles, 4)
	require.Equal(t, 2, res.View.Pairs)
	for _, tv := range res.View.Tiles {
		require.Equal(t, game.StatusHidden, tv.Status)
		require.Empty(t, tv.Symbol)
	}

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookieName, cookies[0].Name)
	require.Equal(t, res.Token, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)

	rec = do(t, s, http.MethodPost, "/game/new", "", `{"mode":"hard"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevealAndRestart(t *testing.T) {
	s := newTestServer(t)
	g := newGame(t, s, "")
	base := "/game/" + g.GameID

	v := decodeView(t, do(t, s, http.MethodPost, base+"/reveal", g.Token, `{"index":0}`))
	require.Equal(t, game.StatusRevealed, v.Tiles[0].Status)
	require.NotEmpty(t, v.Tiles[0].Symbol)
	require.Equal(t, game.PhaseOneSelected, v.Phase)
	require.True(t, v.Running)
	require.Zero(t, v.Moves)

	// the same tile twice is ignored, not an error
	again := decodeView(t, do(t, s, http.MethodPost, base+"/reveal", g.Token, `{"index":0}`))
	require.Equal(t, v, again)

	// out of range is ignored, not an error
	oob := decodeView(t, do(t, s, http.MethodPost, base+"/reveal", g.Token, `{"index":99}`))
	require.Equal(t, v, oob)

	v = decodeView(t, do(t, s, http.MethodPost, base+"/reveal", g.Token, `{"index":1}`))
	require.Equal(t, 1, v.Moves)

	v = decodeView(t, do(t, s, http.MethodGet, base, g.Token, ""))
	require.Equal(t, 1, v.Moves)

	v = decodeView(t, do(t, s, http.MethodPost, base+"/restart", g.Token, ""))
	require.Zero(t, v.Moves)
	require.Zero(t, v.Elapsed)
	require.False(t, v.Locked)
	require.False(t, v.Running)
	require.Equal(t, game.PhaseIdle, v.Phase)
	require.Equal(t, g.GameID, v.ID)
}

func TestRevealBadRequests(t *testing.T) {
	s := newTestServer(t)
	g := newGame(t, s, "")
	path := "/game/" + g.GameID + "/reveal"

	rec := do(t, s, http.MethodPost, path, g.Token, `{"index":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, path, g.Token, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionAuth(t *testing.T) {
	s := newTestServer(t)
	a := newGame(t, s, "")
	b := newGame(t, s, "")

	tests := []struct {
		name  string
		path  string
		token string
		code  int
	}{
		{name: "no token", path: "/game/" + a.GameID, code: http.StatusUnauthorized},
		{name: "garbage token", path: "/game/" + a.GameID, token: "not-a-jwt", code: http.StatusUnauthorized},
		{name: "other session", path: "/game/" + a.GameID, token: b.Token, code: http.StatusForbidden},
		{name: "own session", path: "/game/" + a.GameID, token: a.Token, code: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, tt.token, "")
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	t.Run("foreign signing key", func(t *testing.T) {
		other := New(s.sessions, s.hub, Options{JWTSecret: "someone-else"})
		tok, _, err := other.signToken(a.GameID)
		require.NoError(t, err)
		rec := do(t, s, http.MethodGet, "/game/"+a.GameID, tok, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("query token", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/game/"+a.GameID+"?token="+a.Token, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/game/"+a.GameID, nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: a.Token})
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)
	tok, _, err := s.signToken("missing")
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/game/missing/reveal", tok, `{"index":0}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodPost, "/game/missing/restart", tok, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteGame(t *testing.T) {
	s := newTestServer(t)
	g := newGame(t, s, "")

	rec := do(t, s, http.MethodDelete, "/game/"+g.GameID, g.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/game/"+g.GameID, g.Token, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDaily(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/daily", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"date":"2026-10-17","pairs":2}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/daily/new", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res newGameRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, session.ModeDaily, res.View.Mode)

	// the same board is dealt to a second player on the same day
	second := newGame(t, s, session.ModeDaily)
	for i := range res.View.Tiles {
		a := decodeView(t, do(t, s, http.MethodPost, "/game/"+res.GameID+"/reveal", res.Token, `{"index":`+strconv.Itoa(i)+`}`))
		b := decodeView(t, do(t, s, http.MethodPost, "/game/"+second.GameID+"/reveal", second.Token, `{"index":`+strconv.Itoa(i)+`}`))
		require.Equal(t, a.Tiles[i].Symbol, b.Tiles[i].Symbol)
		// start over so the next index can be revealed
		do(t, s, http.MethodPost, "/game/"+res.GameID+"/restart", res.Token, "")
		do(t, s, http.MethodPost, "/game/"+second.GameID+"/restart", second.Token, "")
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"not_found"`)
}
