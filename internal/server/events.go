package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/studykit/aptrack/internal/platform/persist"
)

// Event is one store-change notification on the websocket feed. Only
// metadata travels over the wire; clients re-fetch the data they care
// about.
type Event struct {
	Store    string `json:"store"`
	Revision uint64 `json:"revision"`
}

// Hub fans store-change notifications out to connected websocket clients.
type Hub struct {
	log *slog.Logger

	mu        sync.Mutex
	revisions map[string]uint64
	subs      map[chan Event]struct{}
}

// NewHub creates an event hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:       log,
		revisions: make(map[string]uint64),
		subs:      make(map[chan Event]struct{}),
	}
}

// Notify records a change to the named store and broadcasts it. Slow
// clients drop events rather than blocking the store's save path.
func (h *Hub) Notify(store string) {
	h.mu.Lock()
	h.revisions[store]++
	ev := Event{Store: store, Revision: h.revisions[store]}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *Hub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// HandleEvents upgrades the connection and streams change events until the
// client goes away.
func (h *Hub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

// Watch wires a persistence store into the hub: every save, load or clear
// on the store becomes one change event keyed by the store's persistence key.
func Watch[T any](h *Hub, p *persist.Store[T]) {
	p.Subscribe(func(T) {
		h.Notify(p.Key())
	})
}
