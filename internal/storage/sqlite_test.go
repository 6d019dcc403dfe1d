package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kensaku/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	modified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := &models.Document{
		ID:               "doc1",
		Title:            "Quarterly report",
		Content:          "revenue",
		Path:             "/docs/q1.docx",
		FileType:         "docx",
		Author:           "ana",
		Size:             2048,
		Metadata:         map[string]interface{}{"k": "v"},
		LastModifiedTime: modified,
	}
	if err := store.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Quarterly report" || got.FileType != "docx" || got.Size != 2048 || got.Author != "ana" {
		t.Errorf("got %+v", got)
	}
	if !got.LastModifiedTime.Equal(modified) {
		t.Errorf("LastModifiedTime = %v, want %v", got.LastModifiedTime, modified)
	}
	if got.Metadata["k"] != "v" {
		t.Errorf("Metadata = %v", got.Metadata)
	}

	byPath, err := store.GetDocumentByPath(ctx, "/docs/q1.docx")
	if err != nil || byPath.ID != "doc1" {
		t.Errorf("GetDocumentByPath = %+v, %v", byPath, err)
	}

	if err := store.CreateDocument(ctx, doc); err == nil {
		t.Error("duplicate create should fail")
	}

	list, err := store.ListDocuments(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 doc, got %d", len(list))
	}

	if err := store.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument after delete: %v", err)
	}
	if err := store.DeleteDocument(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if _, err := store.GetDocumentByPath(ctx, "/docs/q1.docx"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocumentByPath after delete: %v", err)
	}
}

func TestSQLiteStorage_UpsertKeepsCreatedAt(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{ID: "d1", Title: "v1", Content: "one"}
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	first, _ := store.GetDocument(ctx, "d1")

	if err := store.UpsertDocument(ctx, &models.Document{ID: "d1", Title: "v2", Content: "two", FileType: "txt"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetDocument(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "v2" || got.Content != "two" || got.FileType != "txt" {
		t.Errorf("upsert did not replace: %+v", got)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, got.CreatedAt)
	}
	if n, _ := store.CountDocuments(ctx); n != 1 {
		t.Errorf("CountDocuments = %d, want 1", n)
	}
}

func TestSQLiteStorage_ListAndCount(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.CreateDocument(ctx, &models.Document{ID: id, Content: id}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := store.CountDocuments(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountDocuments = %d, %v", n, err)
	}
	page, err := store.ListDocuments(ctx, 1, 1)
	if err != nil || len(page) != 1 {
		t.Errorf("ListDocuments(1, 1) = %v, %v", page, err)
	}
	rest, _ := store.ListDocuments(ctx, 0, 10)
	if len(rest) != 3 {
		t.Errorf("ListDocuments(0, 10) returned %d", len(rest))
	}
}

func TestSQLiteStorage_memory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.CreateDocument(ctx, &models.Document{ID: "m", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.CountDocuments(ctx); n != 1 {
		t.Errorf("CountDocuments = %d", n)
	}
}
