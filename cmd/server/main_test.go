package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/studykit/aptrack/internal/platform/config"
)

func TestLoadCatalog_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.csv")
	contents := "id,name,subject,meanScore,passRate\nphysics-1,AP Physics 1,Science,2.5,45\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	courses, err := loadCatalog(path)
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("course count = %d, want 1", len(courses))
	}
	if courses[0].ID != "physics-1" {
		t.Errorf("course id = %q, want physics-1", courses[0].ID)
	}
}

func TestLoadCatalog_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadCatalog(path); err == nil {
		t.Fatal("loadCatalog accepted an unsupported format")
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	if _, err := loadCatalog(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("loadCatalog succeeded on a missing file")
	}
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := newBackend(ctx, config.StorageConfig{Driver: "memory"})
		if err != nil {
			t.Fatalf("newBackend: %v", err)
		}
		b.Close()
	})

	t.Run("sqlite", func(t *testing.T) {
		b, err := newBackend(ctx, config.StorageConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "aptrack.db"),
		})
		if err != nil {
			t.Fatalf("newBackend: %v", err)
		}
		b.Close()
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := newBackend(ctx, config.StorageConfig{Driver: "etcd"}); err == nil {
			t.Fatal("newBackend accepted an unknown driver")
		}
	})
}
