package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kensaku/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/kensaku/data/indices/bleve"
	}
	if cfg.Session.PageSize == 0 {
		cfg.Session.PageSize = 50
	}
	if cfg.Session.SelectProperties == nil {
		cfg.Session.SelectProperties = []string{"Title", "Path", "FileType", "Author", "LastModifiedTime"}
	}
	if cfg.Session.Refiners == nil {
		cfg.Session.Refiners = []string{"FileType", "Author"}
	}
	if cfg.Session.FacetSize == 0 {
		cfg.Session.FacetSize = 10
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://" + cfg.Server.Addr()
	}
	if cfg.Client.TimeoutSeconds == 0 {
		cfg.Client.TimeoutSeconds = 30
	}
	if cfg.Client.SuggestCacheSize == 0 {
		cfg.Client.SuggestCacheSize = 256
	}
	if cfg.Suggest.MaxSuggestions == 0 {
		cfg.Suggest.MaxSuggestions = 8
	}
	if cfg.Suggest.MaxDistance == 0 {
		cfg.Suggest.MaxDistance = 2
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".pptx"}
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 500
	}
	if cfg.Watch.IndexWorkers == 0 {
		cfg.Watch.IndexWorkers = 4
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
