// Package storage persists the document catalog behind the search index.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kensaku/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Storage defines document catalog operations.
type Storage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	// UpsertDocument inserts doc or replaces the stored copy, keeping its CreatedAt.
	UpsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetDocumentByPath(ctx context.Context, path string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	Close() error
}
