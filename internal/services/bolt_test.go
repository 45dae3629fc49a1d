package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/eburon/artifact-web-ui/internal/services"
)

func newTestBoltDB(t *testing.T) services.BoltDB {
	t.Helper()

	db, err := services.NewBoltDB(filepath.Join(t.TempDir(), "artifacts.db"))
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestBoltDBSaveArtifact(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := db.SaveArtifact(ctx, models.Artifact{
		Title:     "Build a login form",
		Mode:      "ui",
		Prompt:    "a login form",
		Content:   "<form></form>",
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}
	if id == "" {
		t.Fatal("SaveArtifact() returned an empty id")
	}

	got, err := db.Artifact(ctx, id)
	if err != nil {
		t.Fatalf("Artifact() error = %v", err)
	}
	if got.ID != id || got.Title != "Build a login form" || got.Content != "<form></form>" {
		t.Errorf("Artifact() = %+v", got)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("Artifact().CreatedAt = %v, want %v", got.CreatedAt, createdAt)
	}
}

func TestBoltDBSetsCreatedAt(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	id, err := db.SaveArtifact(ctx, models.Artifact{Mode: "svg", Content: "<svg/>"})
	if err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}
	got, err := db.Artifact(ctx, id)
	if err != nil {
		t.Fatalf("Artifact() error = %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Artifact().CreatedAt is zero, want the save time")
	}
}

func TestBoltDBArtifactsNewestFirst(t *testing.T) {
	db := newTestBoltDB(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		id, err := db.SaveArtifact(ctx, models.Artifact{
			Title:     "artifact",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveArtifact() error = %v", err)
		}
		ids = append(ids, id)
	}

	artifacts, err := db.Artifacts(ctx)
	if err != nil {
		t.Fatalf("Artifacts() error = %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("Artifacts() len = %d, want 3", len(artifacts))
	}
	for i, a := range artifacts {
		if want := ids[len(ids)-1-i]; a.ID != want {
			t.Errorf("Artifacts()[%d].ID = %s, want %s", i, a.ID, want)
		}
	}
}

func TestBoltDBArtifactNotFound(t *testing.T) {
	db := newTestBoltDB(t)

	_, err := db.Artifact(context.Background(), "missing")
	if !errors.Is(err, models.ErrArtifactNotFound) {
		t.Errorf("Artifact() error = %v, want %v", err, models.ErrArtifactNotFound)
	}
}

func TestBoltDBReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	ctx := context.Background()

	db, err := services.NewBoltDB(path)
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	id, err := db.SaveArtifact(ctx, models.Artifact{Title: "kept"})
	if err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err = services.NewBoltDB(path)
	if err != nil {
		t.Fatalf("NewBoltDB() reopen error = %v", err)
	}
	defer db.Close()

	got, err := db.Artifact(ctx, id)
	if err != nil {
		t.Fatalf("Artifact() error = %v", err)
	}
	if got.Title != "kept" {
		t.Errorf("Artifact().Title = %q, want kept", got.Title)
	}
}
