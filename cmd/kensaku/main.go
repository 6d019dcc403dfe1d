// Package main is the kensaku CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kensaku/internal/cli"
	"github.com/hyperjump/kensaku/internal/client"
	"github.com/hyperjump/kensaku/internal/config"
	"github.com/hyperjump/kensaku/internal/extract"
	"github.com/hyperjump/kensaku/internal/indexer"
	"github.com/hyperjump/kensaku/internal/keyword"
	"github.com/hyperjump/kensaku/internal/query"
	"github.com/hyperjump/kensaku/internal/server"
	"github.com/hyperjump/kensaku/internal/session"
	"github.com/hyperjump/kensaku/internal/storage"
	"github.com/hyperjump/kensaku/internal/watcher"
	"github.com/hyperjump/kensaku/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kensaku/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded (for saving, etc.).
// A missing default config yields the built-in defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, func()) {
	logger, closeLog, err := utils.NewLoggerWithConfig(debug, utils.LogConfig{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger, func() {
		_ = logger.Sync()
		_ = closeLog()
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "suggest":
		runSuggest()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kensaku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (queries, directory changes, file indexing, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	cfg.Debug = debugMode
	logger, closeLog := newLogger(cfg, debugMode)
	defer closeLog()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	idx := components.Indexer
	exts := cfg.Watch.Extensions
	watchSvc := watcher.New(
		watcher.Config{
			Roots:      cfg.Watch.Directories,
			Extensions: exts,
			Recursive:  cfg.Watch.RecursiveOrDefault(),
		},
		func(path string) {
			if err := idx.IndexFile(context.Background(), path, exts); err != nil {
				logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := idx.DeleteFile(context.Background(), path); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(cfg.Watch.Debounce()),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Index,
		components.Indexer,
		components.Storage,
		cfg,
		logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kensaku search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
The query runs as a search session: the first page is fetched, each -refine
toggles a facet value and refetches, and -pages loads further pages.

Examples:
  kensaku search quarterly report
  kensaku search -page-size 2 -pages 3 report
  kensaku search -refine FileType=docx -refine Author=ana report
  kensaku search -sort LastModifiedTime:desc -format compact budget
  kensaku search -server "" report          # open the local index directly
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// refinement is one -refine Facet=value flag.
type refinement struct {
	facet string
	value string
}

// refineFlags collects repeated -refine flags.
type refineFlags []refinement

func (r *refineFlags) String() string {
	parts := make([]string, 0, len(*r))
	for _, ref := range *r {
		parts = append(parts, ref.facet+"="+ref.value)
	}
	return strings.Join(parts, ",")
}

func (r *refineFlags) Set(s string) error {
	ref, err := parseRefinement(s)
	if err != nil {
		return err
	}
	*r = append(*r, ref)
	return nil
}

func parseRefinement(s string) (refinement, error) {
	facet, value, ok := strings.Cut(s, "=")
	facet = strings.TrimSpace(facet)
	if !ok || facet == "" {
		return refinement{}, fmt.Errorf("refinement %q: want Facet=value", s)
	}
	return refinement{facet: facet, value: value}, nil
}

// parseSort parses "Property" or "Property:desc" / "Property:asc".
func parseSort(s string) (query.Sort, error) {
	prop, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	if prop == "" {
		return query.Sort{}, fmt.Errorf("sort %q: property is required", s)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return query.Sort{Property: prop}, nil
	case "desc":
		return query.Sort{Property: prop, Descending: true}, nil
	default:
		return query.Sort{}, fmt.Errorf("sort %q: direction must be asc or desc", s)
	}
}

func sessionDefaults(cfg *config.Config, pageSize int, refiners string) session.Defaults {
	d := session.Defaults{
		PageSize:         cfg.Session.PageSize,
		SelectProperties: cli.SelectProperties,
		Refiners:         cfg.Session.RefinerList(),
	}
	if pageSize > 0 {
		d.PageSize = pageSize
	}
	if refiners != "" {
		d.Refiners = refiners
	}
	return d
}

// runSession searches, applies each refinement, then loads up to pages-1 further pages.
func runSession(ctx context.Context, ctl *session.Controller[cli.Hit], text string, sorts []query.Sort, refs []refinement, pages int) error {
	q := query.Func(func(b *query.Builder) {
		b.Text(text)
		for _, s := range sorts {
			b.SortBy(s.Property, s.Descending)
		}
	})
	if _, err := ctl.Search(ctx, q); err != nil {
		return err
	}
	for _, ref := range refs {
		if err := ctl.ApplyRefiner(ctx, ref.facet, ref.value); err != nil {
			return err
		}
	}
	for i := 1; i < pages && ctl.State().HasMore; i++ {
		if _, err := ctl.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (session defaults; the local index when -server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local index directly)")
	pageSize := fs.Int("page-size", 0, "results per page (default from config)")
	pages := fs.Int("pages", 1, "number of pages to load")
	refiners := fs.String("refiners", "", "comma-joined facets to compute (default from config)")
	sortFlag := fs.String("sort", "", "sort by property, e.g. LastModifiedTime:desc")
	outputFormat := fs.String("format", "text", "output format: text, compact (one result per line), or json")
	var refs refineFlags
	fs.Var(&refs, "refine", "apply a refiner Facet=value (repeatable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var sorts []query.Sort
	if *sortFlag != "" {
		s, err := parseSort(*sortFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		sorts = append(sorts, s)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog := newLogger(cfg, cfg.Debug)
	defer closeLog()

	backend, closeBackend, err := openBackend(cfg, *serverURL, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer closeBackend()

	ctl := session.New[cli.Hit](backend,
		session.WithDefaults(sessionDefaults(cfg, *pageSize, *refiners)),
		session.WithLogger(logger))
	defer ctl.Close()

	ctx := context.Background()
	if err := runSession(ctx, ctl, queryStr, sorts, refs, *pages); err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	st := ctl.State()
	if err := cli.WriteSession(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if st.TotalResults == 0 && format != cli.OutputJSON {
		if suggestions, err := ctl.Suggest(ctx, queryStr); err == nil && len(suggestions) > 0 {
			fmt.Fprintf(os.Stderr, "Did you mean: %s\n", suggestions[0])
		}
	}
}

func runSuggest() {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local index directly)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	text := buildSearchQuery(fs.Args())
	if text == "" {
		fmt.Println("Usage: kensaku suggest [flags] <partial query>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog := newLogger(cfg, cfg.Debug)
	defer closeLog()

	backend, closeBackend, err := openBackend(cfg, *serverURL, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer closeBackend()

	ctl := session.New[cli.Hit](backend, session.WithLogger(logger))
	defer ctl.Close()
	queries, err := ctl.Suggest(context.Background(), text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Suggest failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSuggestions(os.Stdout, queries, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// openBackend returns an HTTP client for serverURL, or the local index when serverURL is empty.
func openBackend(cfg *config.Config, serverURL string, logger *zap.Logger) (session.Backend, func(), error) {
	if serverURL != "" {
		// the server holds the index lock, so talk to it over HTTP
		c, err := client.New(serverURL,
			client.WithTimeout(cfg.Client.Timeout()),
			client.WithSuggestCacheSize(cfg.Client.SuggestCacheSize),
			client.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return components.Index, components.Close, nil
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents        int64         `json:"documents"`
	Indexed          uint64        `json:"indexed"`
	DiskUsageBytes   *int64        `json:"disk_usage_bytes,omitempty"`
	WatchDirectories []string      `json:"watch_directories,omitempty"`
	Config           *statusConfig `json:"config,omitempty"`
}

type statusConfig struct {
	PageSize       int      `json:"page_size"`
	Refiners       []string `json:"refiners"`
	DatabasePath   string   `json:"database_path,omitempty"`
	BleveIndexPath string   `json:"bleve_index_path,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local index directly)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog := newLogger(cfg, cfg.Debug)
	defer closeLog()

	status, err := fetchStatus(context.Background(), cfg, *serverURL, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeStatus(os.Stdout, status, *outputFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fetchStatus(ctx context.Context, cfg *config.Config, serverURL string, logger *zap.Logger) (*statusResponse, error) {
	var status statusResponse
	if serverURL != "" {
		c, err := client.New(serverURL, client.WithTimeout(cfg.Client.Timeout()), client.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		raw, err := c.Status(ctx)
		if err != nil {
			return nil, err
		}
		// re-decode the generic document into the typed shape
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &status); err != nil {
			return nil, fmt.Errorf("decode status: %w", err)
		}
		return &status, nil
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()
	if status.Documents, err = components.Storage.CountDocuments(ctx); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if status.Indexed, err = components.Index.DocCount(); err != nil {
		return nil, fmt.Errorf("count indexed: %w", err)
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	status.Config = &statusConfig{cfg.Session.PageSize, cfg.Session.Refiners, cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath}
	return &status, nil
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "documents:          %d   # documents in the catalog\n", status.Documents)
		fmt.Fprintf(w, "indexed:            %d   # documents in the search index\n", status.Indexed)
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage_bytes:   %d   # catalog + index on disk\n", *status.DiskUsageBytes)
		}
		if len(status.WatchDirectories) > 0 {
			dirs := append([]string(nil), status.WatchDirectories...)
			sort.Strings(dirs)
			fmt.Fprintf(w, "watching:           %s\n", strings.Join(dirs, ", "))
		}
		if status.Config != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "# configuration")
			fmt.Fprintf(w, "page_size:          %d\n", status.Config.PageSize)
			fmt.Fprintf(w, "refiners:           %s\n", strings.Join(status.Config.Refiners, ","))
			if status.Config.DatabasePath != "" {
				fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.BleveIndexPath != "" {
				fmt.Fprintf(w, "bleve_index_path:   %s\n", status.Config.BleveIndexPath)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kensaku index [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog := newLogger(cfg, cfg.Debug)
	defer closeLog()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Indexer.IndexDirectory(ctx, path, cfg.Watch.Extensions)
		if err != nil {
			fmt.Printf("Indexing directory failed after %d file(s): %v\n", n, err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d file(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter
	if err := components.Indexer.IndexFile(ctx, path, nil); err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	absPath, _ := filepath.Abs(path)
	fmt.Printf("Document indexed successfully: %s\n", indexer.DocID(absPath))
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kensaku watch <add|remove|list> [path]")
		fmt.Println("  kensaku watch add <path>     Add directory to watch")
		fmt.Println("  kensaku watch remove <path>  Remove directory from watch")
		fmt.Println("  kensaku watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[3:])
	endpoint := strings.TrimSuffix(*serverURL, "/") + "/api/v1/watch/directories"

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kensaku watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		if err := watchRequest(http.MethodPost, endpoint, bytes.NewReader(body), http.StatusCreated, nil); err != nil {
			fmt.Printf("Add failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kensaku watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := watchRequest(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil, http.StatusOK, nil); err != nil {
			fmt.Printf("Remove failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := watchRequest(http.MethodGet, endpoint, nil, http.StatusOK, &out); err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func watchRequest(method, target string, body io.Reader, wantStatus int, out interface{}) error {
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	byPath := fs.Bool("path", false, "treat the argument as an indexed file path instead of a document ID")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kensaku delete [flags] <document-id | -path file>")
		os.Exit(1)
	}
	arg := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog := newLogger(cfg, cfg.Debug)
	defer closeLog()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if *byPath {
		err = components.Indexer.DeleteFile(ctx, arg)
	} else {
		err = components.Indexer.DeleteDocument(ctx, arg)
	}
	if err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", arg)
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Index   *keyword.BleveIndex
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	kw, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath,
		keyword.WithLogger(logger),
		keyword.WithFacetSize(cfg.Session.FacetSize),
		keyword.WithSuggestSize(cfg.Suggest.MaxSuggestions),
		keyword.WithCorrectionDistance(cfg.Suggest.MaxDistance),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	idx := indexer.New(store, kw, extract.NewExtractor(),
		indexer.WithLogger(logger),
		indexer.WithWorkers(cfg.Watch.IndexWorkers),
	)
	return &Components{Storage: store, Index: kw, Indexer: idx}, nil
}

func printUsage() {
	fmt.Println(`kensaku - faceted document search

Usage:
  kensaku server [flags]             Start the HTTP server
  kensaku search [flags] <query>     Run a search session (pages, refiners)
  kensaku suggest [flags] <text>     Suggest query completions
  kensaku index [flags] <path>       Index a file or directory
  kensaku delete [flags] <id>        Delete a document
  kensaku status [flags]             Show catalog/index status
  kensaku watch <add|remove|list>    Manage watched directories
  kensaku version                    Show version
  kensaku help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kensaku/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Empty opens the local index.
  --page-size int    Results per page (default from config)
  --pages int        Pages to load (default: 1)
  --refine F=v       Toggle refiner value v of facet F (repeatable)
  --refiners string  Comma-joined facets to compute (default from config)
  --sort string      Property[:asc|desc]
  --format string    text, compact or json (default: text)

Delete Flags:
  --path             Argument is a file path instead of a document ID

Examples:
  kensaku server
  kensaku search -page-size 2 -pages 2 report
  kensaku search -refine FileType=docx "quarterly report"
  kensaku suggest quar
  kensaku index ~/Documents
  kensaku delete -path ~/Documents/old.docx
  kensaku status -format json
  kensaku watch add /path/to/docs`)
}
