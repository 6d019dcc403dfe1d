package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kensaku/internal/config"
	"github.com/hyperjump/kensaku/internal/indexer"
	"github.com/hyperjump/kensaku/internal/keyword"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/query"
	"github.com/hyperjump/kensaku/internal/server"
	"github.com/hyperjump/kensaku/internal/session"
	"github.com/hyperjump/kensaku/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type hit struct {
	Title    string
	FileType string
}

// A session driven over HTTP against a real server and index.
func TestSessionOverHTTP(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	require.NoError(t, err)
	defer store.Close()
	kw, err := keyword.NewMemoryIndex()
	require.NoError(t, err)
	defer kw.Close()
	idx := indexer.New(store, kw, nil)

	ctx := context.Background()
	for _, in := range []models.DocumentInput{
		{ID: "r1", Title: "Sales report", Content: "report", FileType: "docx"},
		{ID: "r2", Title: "Audit report", Content: "report", FileType: "pdf"},
		{ID: "r3", Title: "Board report", Content: "report", FileType: "docx"},
		{ID: "b1", Title: "Budget", Content: "numbers", FileType: "xlsx"},
	} {
		_, err := idx.IndexDocument(ctx, &in)
		require.NoError(t, err)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	srv := httptest.NewServer(server.NewServer(kw, idx, store, cfg, zap.NewNop()).Router())
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctl := session.New[hit](c, session.WithDefaults(session.Defaults{
		PageSize:         2,
		SelectProperties: []string{"Title", "FileType"},
		Refiners:         "FileType",
	}))
	defer ctl.Close()

	first, err := ctl.Search(ctx, query.Func(func(b *query.Builder) { b.Text("report") }))
	require.NoError(t, err)
	assert.Len(t, first, 2)
	st := ctl.State()
	assert.Equal(t, 3, st.TotalResults)
	assert.True(t, st.HasMore)
	require.Len(t, st.Refiners, 1)
	docx, ok := st.Refiners[0].Entry("docx")
	require.True(t, ok)
	assert.Equal(t, 2, docx.Count)

	more, err := ctl.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, more, 1)
	assert.False(t, ctl.State().HasMore)

	require.NoError(t, ctl.ApplyRefiner(ctx, "FileType", "docx"))
	st = ctl.State()
	assert.Equal(t, 2, st.TotalResults)
	for _, r := range st.Results {
		assert.Equal(t, "docx", r.Data.FileType)
	}
	assert.Equal(t, map[string][]string{"FileType": {"docx"}}, st.Refinements)

	suggestions, err := ctl.Suggest(ctx, "rep")
	require.NoError(t, err)
	assert.Contains(t, suggestions, "report")
}
