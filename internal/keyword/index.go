// Package keyword is the in-process search backend: a bleve index that answers
// query descriptors with ranked rows and term facets, and completes partial queries.
package keyword

import (
	"context"

	"github.com/hyperjump/kensaku/internal/models"
)

// Index stores documents for search.
type Index interface {
	Index(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}

// Term is a dictionary entry with its document frequency.
type Term struct {
	Text  string
	Count int
}

// TermDictionary lists the terms known to an index.
type TermDictionary interface {
	Terms() ([]Term, error)
}

// Field names of the index mapping. They double as the managed property names
// used in select lists, refinement filters and refiners.
const (
	FieldTitle            = "Title"
	FieldContent          = "Content"
	FieldPath             = "Path"
	FieldFileName         = "FileName"
	FieldFileType         = "FileType"
	FieldAuthor           = "Author"
	FieldSize             = "Size"
	FieldLastModifiedTime = "LastModifiedTime"
)
