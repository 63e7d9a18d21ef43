package structure_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/studykit/aptrack/internal/structure"
)

// stubFetcher returns canned text per URL, or an error.
type stubFetcher struct {
	mu    sync.Mutex
	text  map[string]string
	err   error
	calls int

	// when set, FetchText blocks until the channel closes
	gate chan struct{}
}

func (f *stubFetcher) FetchText(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text[url], nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(fetcher structure.Fetcher) *structure.Service {
	registry := structure.NewRegistry()
	registry.Add("physics-1", "https://example.org/physics-1.pdf")
	return structure.NewService(fetcher, registry, discardLogger())
}

func TestStructure_ParsesAndCaches(t *testing.T) {
	fetcher := &stubFetcher{text: map[string]string{
		"https://example.org/physics-1.pdf": "Unit 1: Kinematics (15%) Unit 2: Dynamics (20%)",
	}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	got, err := svc.Structure(ctx, "physics-1")
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if len(got.Units) != 2 {
		t.Fatalf("unit count = %d, want 2", len(got.Units))
	}

	// second call is served from cache
	if _, err := svc.Structure(ctx, "physics-1"); err != nil {
		t.Fatalf("Structure (cached): %v", err)
	}
	if calls := fetcher.callCount(); calls != 1 {
		t.Errorf("fetch count = %d, want 1", calls)
	}
	if _, ok := svc.Cached("physics-1"); !ok {
		t.Error("Cached() = false after successful load")
	}
}

func TestStructure_FetchFailureFallsBack(t *testing.T) {
	fetchErr := fmt.Errorf("connection refused")
	svc := newTestService(&stubFetcher{err: fetchErr})
	ctx := context.Background()

	got, err := svc.Structure(ctx, "physics-1")
	if err != nil {
		t.Fatalf("Structure returned error %v, want fallback outline", err)
	}
	if len(got.Units) != 3 {
		t.Errorf("unit count = %d, want 3 fallback units", len(got.Units))
	}
	if svc.Err("physics-1") == nil {
		t.Error("Err() = nil, want the recorded fetch failure")
	}
}

func TestStructure_NoSource(t *testing.T) {
	svc := newTestService(&stubFetcher{})

	_, err := svc.Structure(context.Background(), "unmapped-course")
	if !errors.Is(err, structure.ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
}

func TestStructure_ConcurrentLoadFailsFast(t *testing.T) {
	fetcher := &stubFetcher{
		text: map[string]string{"https://example.org/physics-1.pdf": "Unit 1: Kinematics (15%)"},
		gate: make(chan struct{}),
	}
	svc := newTestService(fetcher)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Structure(ctx, "physics-1")
	}()

	// wait for the first load to be marked in flight
	deadline := time.After(2 * time.Second)
	for !svc.Loading("physics-1") {
		select {
		case <-deadline:
			t.Fatal("first load never entered the loading state")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := svc.Structure(ctx, "physics-1")
	if !errors.Is(err, structure.ErrAlreadyLoading) {
		t.Errorf("concurrent load err = %v, want ErrAlreadyLoading", err)
	}

	close(fetcher.gate)
	<-done

	if svc.Loading("physics-1") {
		t.Error("Loading() still true after load finished")
	}
}

func TestAddSource_InvalidatesCache(t *testing.T) {
	fetcher := &stubFetcher{text: map[string]string{
		"https://example.org/physics-1.pdf": "Unit 1: Kinematics (15%)",
		"https://example.org/revised.pdf":   "Unit 1: Kinematics (15%) Unit 2: Dynamics (20%)",
	}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	first, _ := svc.Structure(ctx, "physics-1")
	if len(first.Units) != 1 {
		t.Fatalf("unit count = %d, want 1", len(first.Units))
	}

	svc.AddSource("physics-1", "https://example.org/revised.pdf")
	if _, ok := svc.Cached("physics-1"); ok {
		t.Fatal("cache survived AddSource")
	}

	second, _ := svc.Structure(ctx, "physics-1")
	if len(second.Units) != 2 {
		t.Errorf("unit count after re-extract = %d, want 2", len(second.Units))
	}
}

func TestRemoveSource(t *testing.T) {
	fetcher := &stubFetcher{text: map[string]string{
		"https://example.org/physics-1.pdf": "Unit 1: Kinematics (15%)",
	}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	svc.Structure(ctx, "physics-1")
	svc.RemoveSource("physics-1")

	if svc.Available("physics-1") {
		t.Error("Available() = true after RemoveSource")
	}
	if _, ok := svc.Cached("physics-1"); ok {
		t.Error("cache survived RemoveSource")
	}
	if _, err := svc.Structure(ctx, "physics-1"); !errors.Is(err, structure.ErrNoSource) {
		t.Errorf("err = %v, want ErrNoSource after removal", err)
	}
}

func TestPreload(t *testing.T) {
	fetcher := &stubFetcher{text: map[string]string{
		"https://example.org/physics-1.pdf": "Unit 1: Kinematics (15%)",
	}}
	svc := newTestService(fetcher)

	svc.Preload(context.Background(), []string{"physics-1", "unmapped-course"})

	if _, ok := svc.Cached("physics-1"); !ok {
		t.Error("physics-1 not cached after preload")
	}
	if _, ok := svc.Cached("unmapped-course"); ok {
		t.Error("unmapped course ended up cached")
	}
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	contents := "sources:\n  physics-1: https://example.org/physics-1.pdf\n  chemistry: https://example.org/chemistry.pdf\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := structure.NewRegistry()
	if err := registry.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if url, ok := registry.URL("chemistry"); !ok || url != "https://example.org/chemistry.pdf" {
		t.Errorf("URL(chemistry) = %q, %v", url, ok)
	}
	if got := registry.CourseIDs(); len(got) != 2 {
		t.Errorf("CourseIDs = %v, want 2 entries", got)
	}
}

func TestRegistry_LoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte("sources: [not, a, map]"), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := structure.NewRegistry()
	if err := registry.LoadFile(path); err == nil {
		t.Fatal("LoadFile accepted malformed yaml")
	}
}
