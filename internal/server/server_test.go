package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/padkbd/internal/event"
	"github.com/soar/padkbd/internal/hub"
)

var testFS = fstest.MapFS{
	"index.html": {Data: []byte("<!DOCTYPE html>\n<html>\n  <head>\n    <title>padkbd</title>\n    <style> body { color : red ; } </style>\n  </head>\n  <body>\n    <p>  status  </p>\n  </body>\n</html>\n")},
	"app.txt":    {Data: []byte("static")},
}

type switcher struct{ applied chan string }

func (s *switcher) ApplyProfile(name string) error {
	s.applied <- name
	return nil
}

func newTestServer(t *testing.T, sw hub.ProfileSwitcher) (*httptest.Server, *event.Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub()
	go h.Run(ctx)
	bus := event.NewBus(16)
	b := hub.NewBroadcaster(h, bus.C())
	go b.Run(ctx)

	handler, err := New(h, b, sw, testFS, "").Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, bus
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIndexIsMinified(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "status")
	assert.NotContains(t, body, "\n  ")
	assert.Less(t, len(body), len(testFS["index.html"].Data))
}

func TestStaticFiles(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	_, body := get(t, ts.URL+"/app.txt")
	assert.Equal(t, "static", body)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, _ := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	ts, bus := newTestServer(t, nil)
	bus.Publish(event.Event{Kind: event.PresenceChanged, Armed: true})

	require.Eventually(t, func() bool {
		_, body := get(t, ts.URL+"/api/status")
		var s hub.Status
		return json.Unmarshal([]byte(body), &s) == nil && s.Armed
	}, 2*time.Second, 10*time.Millisecond)
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	return conn
}

func TestWebSocketInitialStateAndEvents(t *testing.T) {
	ts, bus := newTestServer(t, nil)
	conn := dial(t, ts)

	var msg hub.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "full", msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, "idle", msg.Data.Engine)

	time.Sleep(50 * time.Millisecond)
	bus.Publish(event.Event{Kind: event.KeyEmitted, Key: "KEY_DOWN", Value: 1})

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "KEY_DOWN", msg.Event.Key)
}

func TestWebSocketApplyProfile(t *testing.T) {
	sw := &switcher{applied: make(chan string, 1)}
	ts, _ := newTestServer(t, sw)
	conn := dial(t, ts)

	var msg hub.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))

	// replies go only to clients the hub has registered
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.WriteJSON(hub.ClientMessage{Type: "apply_profile", Profile: "tv"}))

	select {
	case name := <-sw.applied:
		assert.Equal(t, "tv", name)
	case <-time.After(2 * time.Second):
		t.Fatal("profile not applied")
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "profile_applied", msg.Type)
	assert.Equal(t, "tv", msg.Profile)
}

func TestListenAndServeAfterShutdown(t *testing.T) {
	h := hub.NewHub()
	b := hub.NewBroadcaster(h, make(chan event.Event))
	s := New(h, b, nil, testFS, "127.0.0.1:0")

	require.NoError(t, s.Shutdown(context.Background()))
	assert.ErrorIs(t, s.ListenAndServe(), http.ErrServerClosed)
}

func TestMissingIndex(t *testing.T) {
	h := hub.NewHub()
	b := hub.NewBroadcaster(h, make(chan event.Event))
	_, err := New(h, b, nil, fstest.MapFS{}, "").Handler()
	assert.Error(t, err)
}
