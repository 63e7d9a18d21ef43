package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/studykit/aptrack/internal/backpack"
	"github.com/studykit/aptrack/internal/catalog"
	"github.com/studykit/aptrack/internal/notes"
	"github.com/studykit/aptrack/internal/platform/config"
	"github.com/studykit/aptrack/internal/platform/persist"
	"github.com/studykit/aptrack/internal/practice"
	"github.com/studykit/aptrack/internal/server"
	"github.com/studykit/aptrack/internal/structure"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	backend, err := newBackend(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage backend", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	catalogPersist := catalog.NewPersist(backend)
	backpackPersist := backpack.NewPersist(backend)
	notesPersist := notes.NewPersist(backend)
	practicePersist := practice.NewPersist(backend)

	catalogStore := catalog.NewStore(catalogPersist)
	backpackStore := backpack.NewStore(backpackPersist)
	notesStore := notes.NewStore(notesPersist)
	practiceStore := practice.NewStore(practicePersist)

	catalogStore.Load(ctx)
	backpackStore.Load(ctx)
	notesStore.Load(ctx)
	practiceStore.Load(ctx)

	courses, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		slog.Error("failed to load course catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}
	catalogStore.SetCourses(courses)
	slog.Info("catalog loaded", "courses", len(courses))

	registry := structure.NewRegistry()
	if cfg.Structure.SourcesPath != "" {
		if err := registry.LoadFile(cfg.Structure.SourcesPath); err != nil {
			slog.Warn("structure sources unavailable", "path", cfg.Structure.SourcesPath, "error", err)
		} else {
			slog.Info("structure sources loaded", "courses", len(registry.CourseIDs()))
		}
	}
	extractor := structure.NewExtractor(cfg.Structure.FetchTimeout, cfg.Structure.MaxPages, logger)
	structures := structure.NewService(extractor, registry, logger)

	hub := server.NewHub(logger)
	server.Watch(hub, catalogPersist)
	server.Watch(hub, backpackPersist)
	server.Watch(hub, notesPersist)
	server.Watch(hub, practicePersist)

	srv := server.New(catalogStore, backpackStore, notesStore, practiceStore, structures, hub, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "storage", cfg.Storage.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	// let in-flight background writes land before the backend closes
	catalogPersist.Flush()
	backpackPersist.Flush()
	notesPersist.Flush()
	practicePersist.Flush()
}

// newBackend opens the persistence backend selected by config.
func newBackend(ctx context.Context, cfg config.StorageConfig) (persist.Backend, error) {
	switch cfg.Driver {
	case "sqlite":
		return persist.NewSQLiteBackend(ctx, cfg.Path)
	case "postgres":
		return persist.NewPostgresBackend(ctx, cfg.PostgresURL, cfg.MaxConns, cfg.MinConns)
	case "redis":
		return persist.NewRedisBackend(ctx, cfg.RedisURL, cfg.Namespace)
	case "memory":
		return persist.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// loadCatalog ingests the course dataset, dispatching on file extension.
func loadCatalog(path string) ([]catalog.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return catalog.IngestCSV(f)
	case ".xlsx":
		return catalog.IngestXLSX(f)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
}
