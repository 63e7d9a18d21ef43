package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/studykit/aptrack/internal/backpack"
	"github.com/studykit/aptrack/internal/platform/persist"
	"github.com/studykit/aptrack/internal/server"
)

func TestEvents_StoreChangesReachSubscribers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := server.NewHub(log)

	p := backpack.NewPersist(persist.NewMemoryBackend())
	store := backpack.NewStore(p)
	store.Load(ctx)
	server.Watch(hub, p)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/events", hub.HandleEvents)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/v1/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dialing events feed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	store.Add(ctx, "physics-1")
	p.Flush()

	var ev server.Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Store != "backpack" {
		t.Errorf("event store = %q, want backpack", ev.Store)
	}
	if ev.Revision == 0 {
		t.Errorf("event revision = 0, want > 0")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := server.NewHub(log)

	// no subscribers connected; Notify must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Notify("notes")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked without subscribers")
	}
}
