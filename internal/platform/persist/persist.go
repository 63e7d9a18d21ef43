// Package persist durably stores named, versioned blobs of application
// state and notifies subscribers when new data becomes available.
//
// Each Store owns one record in a Backend. Records carry a schema version;
// on load, a version mismatch either runs the configured migration or
// discards the stale payload entirely.
package persist

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// record is the wire format for a persisted payload.
type record struct {
	Version   int             `json:"version"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Config describes one persisted store.
type Config[T any] struct {
	// Key names the record inside the backend.
	Key string
	// Version is the current schema version written with every save.
	Version int
	// Migrate converts a payload stored under an older version. When nil,
	// a version mismatch discards the stored payload.
	Migrate func(old json.RawMessage, oldVersion int) (T, error)
	// OnWriteError observes background write failures. When nil, failures
	// are logged and dropped.
	OnWriteError func(error)
}

// Store persists one versioned payload of type T.
//
// Mutations are visible to callers immediately; backend writes happen on a
// background goroutine and are never surfaced to the mutating caller.
type Store[T any] struct {
	cfg     Config[T]
	backend Backend

	mu        sync.Mutex
	data      T
	loaded    bool
	listeners []listener[T]
	nextID    int

	// Pending write state. One writer goroutine drains pending blobs in
	// order; a newer blob replaces an unwritten older one.
	pending []byte
	writing bool
	writes  sync.WaitGroup
}

type listener[T any] struct {
	id int
	fn func(T)
}

// New creates a store over the given backend. Call Load before first use.
func New[T any](backend Backend, cfg Config[T]) *Store[T] {
	return &Store[T]{cfg: cfg, backend: backend}
}

// Key returns the record key this store persists under.
func (s *Store[T]) Key() string { return s.cfg.Key }

// Load reads the persisted record. Read or decode failures are treated
// identically to "no data": logged, never returned. Subscribers are
// notified only when a payload was recovered.
func (s *Store[T]) Load(ctx context.Context) {
	blob, ok, err := s.backend.Get(ctx, s.cfg.Key)
	if err != nil {
		slog.Error("failed to load persisted data", "key", s.cfg.Key, "error", err)
		return
	}
	if !ok {
		return
	}

	var rec record
	if err := json.Unmarshal(blob, &rec); err != nil {
		slog.Error("failed to decode persisted record", "key", s.cfg.Key, "error", err)
		return
	}

	var data T
	switch {
	case rec.Version == s.cfg.Version:
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			slog.Error("failed to decode persisted payload", "key", s.cfg.Key, "error", err)
			return
		}
	case s.cfg.Migrate != nil:
		data, err = s.cfg.Migrate(rec.Data, rec.Version)
		if err != nil {
			slog.Error("migration failed, resetting to defaults",
				"key", s.cfg.Key,
				"from_version", rec.Version,
				"to_version", s.cfg.Version,
				"error", err,
			)
			return
		}
		slog.Info("migrated persisted data",
			"key", s.cfg.Key,
			"from_version", rec.Version,
			"to_version", s.cfg.Version,
		)
	default:
		// No migration path: stale payload is discarded.
		slog.Warn("schema version changed without migration, discarding stored data",
			"key", s.cfg.Key,
			"stored_version", rec.Version,
			"current_version", s.cfg.Version,
		)
		return
	}

	s.mu.Lock()
	s.data = data
	s.loaded = true
	ls := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range ls {
		l.fn(data)
	}
}

// Save replaces the current payload, notifies subscribers, then writes the
// record in the background. Writes are serialized per store and outlive the
// caller's context, so a request-scoped cancellation cannot drop them; when
// saves outpace the backend, intermediate snapshots are skipped and only the
// newest is written. Callers must not assume the write succeeded.
func (s *Store[T]) Save(ctx context.Context, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.writeError(err)
		return
	}

	blob, err := json.Marshal(record{
		Version:   s.cfg.Version,
		Data:      raw,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		s.writeError(err)
		return
	}

	s.mu.Lock()
	s.data = data
	s.loaded = true
	ls := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range ls {
		l.fn(data)
	}

	s.enqueue(ctx, blob)
}

// enqueue hands a marshaled record to the writer goroutine, starting one if
// none is running. The writer uses a context detached from the caller's so
// the write survives the caller returning.
func (s *Store[T]) enqueue(ctx context.Context, blob []byte) {
	s.mu.Lock()
	s.pending = blob
	if !s.writing {
		s.writing = true
		s.writes.Add(1)
		go s.drainWrites(context.WithoutCancel(ctx))
	}
	s.mu.Unlock()
}

func (s *Store[T]) drainWrites(ctx context.Context) {
	defer s.writes.Done()
	for {
		s.mu.Lock()
		blob := s.pending
		s.pending = nil
		if blob == nil {
			s.writing = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if err := s.backend.Put(ctx, s.cfg.Key, blob); err != nil {
			s.writeError(err)
		}
	}
}

// Get returns the current payload and whether any payload has been loaded
// or saved this session.
func (s *Store[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.loaded
}

// Subscribe registers a listener invoked with the current payload
// immediately if one exists, and again after every Save, Load or Clear.
// Listeners run synchronously in registration order. The returned function
// unregisters the listener.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	data, loaded := s.data, s.loaded
	s.mu.Unlock()

	if loaded {
		fn(data)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Clear deletes the stored record and notifies subscribers with the zero
// payload. Delete failures are logged, not returned.
func (s *Store[T]) Clear(ctx context.Context) {
	// Drop any queued snapshot and let in-flight writes finish so the
	// delete cannot be overwritten by a stale record.
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	s.writes.Wait()

	if err := s.backend.Delete(ctx, s.cfg.Key); err != nil {
		slog.Error("failed to clear persisted data", "key", s.cfg.Key, "error", err)
	}

	var zero T
	s.mu.Lock()
	s.data = zero
	s.loaded = false
	ls := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range ls {
		l.fn(zero)
	}
}

// Flush blocks until all background writes issued so far have completed.
func (s *Store[T]) Flush() {
	s.writes.Wait()
}

func (s *Store[T]) snapshotListeners() []listener[T] {
	ls := make([]listener[T], len(s.listeners))
	copy(ls, s.listeners)
	return ls
}

func (s *Store[T]) writeError(err error) {
	if s.cfg.OnWriteError != nil {
		s.cfg.OnWriteError(err)
		return
	}
	slog.Error("failed to save persisted data", "key", s.cfg.Key, "error", err)
}
