// Package indexer writes documents into the catalog and the search index.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hyperjump/kensaku/internal/extract"
	"github.com/hyperjump/kensaku/internal/keyword"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const fileIDPrefix = "file:"

// Indexer keeps the document catalog and the search index in step.
type Indexer struct {
	storage   storage.Storage
	index     keyword.Index
	extractor *extract.Extractor
	workers   int
	logger    *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, document deleted, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithWorkers bounds how many files IndexDirectory processes at once.
func WithWorkers(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// New creates an indexer. extractor may be nil; files are then read as plain text.
func New(store storage.Storage, index keyword.Index, extractor *extract.Extractor, opts ...Option) *Indexer {
	idx := &Indexer{
		storage:   store,
		index:     index,
		extractor: extractor,
		workers:   runtime.NumCPU(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// DocID returns the stable document ID for a file path; the same path always yields the same ID.
func DocID(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return fileIDPrefix + hex.EncodeToString(hash[:])
}

// IndexDocument stores input and indexes it. A missing ID is generated; a
// missing title or file type is derived from the path.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	doc := &models.Document{
		ID:       input.ID,
		Title:    input.Title,
		Content:  Preprocess(input.Content),
		Path:     input.Path,
		FileType: input.FileType,
		Author:   input.Author,
		Size:     int64(len(input.Content)),
		Metadata: input.Metadata,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Path != "" {
		if doc.Title == "" {
			doc.Title = filepath.Base(doc.Path)
		}
		if doc.FileType == "" {
			doc.FileType = extract.FileType(doc.Path)
		}
	}
	if err := idx.put(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (idx *Indexer) put(ctx context.Context, doc *models.Document) error {
	if err := idx.storage.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	if err := idx.indexDocument(ctx, doc); err != nil {
		return err
	}
	idx.logger.Debug("indexer document indexed", zap.String("id", doc.ID), zap.String("file_type", doc.FileType))
	return nil
}

func (idx *Indexer) indexDocument(ctx context.Context, doc *models.Document) error {
	forIndex := *doc
	forIndex.Title = searchableTitle(doc.Title)
	if err := idx.index.Index(ctx, &forIndex); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

// IndexFile extracts the file at path and indexes it under DocID(path).
// If allowedExts is non-empty the extension must be listed (case-insensitive).
// A file already indexed with the same modification time and size is only re-added
// to the search index, which repopulates an index that was rebuilt empty.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := filepath.Ext(absPath)
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}

	id := DocID(absPath)
	if existing, err := idx.storage.GetDocument(ctx, id); err == nil && unchanged(existing, absPath, info) {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return idx.indexDocument(ctx, existing)
	}

	res, err := idx.extract(absPath)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}
	doc := &models.Document{
		ID:               id,
		Title:            res.Title,
		Content:          Preprocess(res.Text),
		Path:             absPath,
		FileType:         res.FileType,
		Author:           res.Author,
		Size:             info.Size(),
		LastModifiedTime: info.ModTime(),
	}
	if err := idx.put(ctx, doc); err != nil {
		return err
	}
	idx.logger.Debug("indexer file indexed", zap.String("path", absPath), zap.String("doc_id", id))
	return nil
}

func unchanged(doc *models.Document, absPath string, info os.FileInfo) bool {
	return doc.Path == absPath && doc.Size == info.Size() && doc.LastModifiedTime.Equal(info.ModTime())
}

func (idx *Indexer) extract(path string) (*extract.Result, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	return &extract.Result{
		Text:     string(content),
		Title:    strings.TrimSuffix(base, filepath.Ext(base)),
		FileType: extract.FileType(path),
	}, nil
}

// IndexDirectory walks dir recursively and indexes every regular file whose extension
// is in allowedExts (all files when empty), using up to the configured number of workers.
// It returns how many files were processed and the first error.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	var n atomic.Int64
	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if gctx.Err() != nil {
			return gctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		// follow symlinks, index regular files only
		if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
			return nil
		}
		g.Go(func() error {
			if err := idx.IndexFile(gctx, path, allowedExts); err != nil {
				return err
			}
			n.Add(1)
			return nil
		})
		return nil
	})
	// a failed file cancels gctx, so the walk error is only reported when no file failed
	if err = g.Wait(); err == nil {
		err = walkErr
	}
	idx.logger.Debug("indexer directory indexed", zap.String("dir", absDir), zap.Int64("files", n.Load()))
	return int(n.Load()), err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteDocument removes a document from the search index and the catalog.
// It returns storage.ErrNotFound (wrapped) when the catalog has no such document.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if err := idx.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from index: %w", err)
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	idx.logger.Debug("indexer document deleted", zap.String("id", id))
	return nil
}

// DeleteFile removes the document indexed from path. A path that was never indexed is not an error.
func (idx *Indexer) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	err = idx.DeleteDocument(ctx, DocID(absPath))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
