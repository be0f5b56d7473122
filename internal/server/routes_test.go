package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0x0806/securechat/internal/matchmaking"
)

func originRequest(t *testing.T, origin string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "open when unconfigured", allowed: nil, origin: "https://evil.example", want: true},
		{name: "listed origin accepted", allowed: []string{"https://app.example"}, origin: "https://app.example", want: true},
		{name: "unlisted origin rejected", allowed: []string{"https://app.example"}, origin: "https://evil.example", want: false},
		{name: "missing origin rejected when configured", allowed: []string{"https://app.example"}, origin: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upgrader := newUpgrader(tt.allowed)
			require.Equal(t, tt.want, upgrader.CheckOrigin(originRequest(t, tt.origin)))
		})
	}
}

func TestHealth(t *testing.T) {
	req := require.New(t)

	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "healthy")
}

func TestStats(t *testing.T) {
	req := require.New(t)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := matchmaking.NewHub(matchmaking.Settings{
		MaxMessageLength: 2000,
		DedupWindow:      2 * time.Second,
		TypingExpiry:     6 * time.Second,
	}, log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	w := httptest.NewRecorder()
	Stats(hub)(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	req.Equal(http.StatusOK, w.Code)
	var stats matchmaking.Stats
	req.NoError(json.Unmarshal(w.Body.Bytes(), &stats))
	req.Zero(stats.Connected)
	req.Zero(stats.Waiting)
	req.Zero(stats.Pairs)
}
