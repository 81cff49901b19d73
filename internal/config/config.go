package config

import "time"

// Config holds runtime settings for the fieldsync service.
//
// Units: all intervals are time.Duration values.
type Config struct {
	// DatabasePath is the SQLite file holding entities, photos and the
	// sync queue.
	DatabasePath string

	// RemoteBaseURL is the root of the collaborator REST API.
	RemoteBaseURL string

	// ListenAddr is where the local HTTP surface binds.
	ListenAddr string

	// OnlineCheckInterval is how often the remote is probed.
	OnlineCheckInterval time.Duration

	// DebounceWindow is how long connectivity must hold steady before the
	// state settles and a sync may fire.
	DebounceWindow time.Duration

	// MaxSyncAttempts bounds submissions per queue entry per drain.
	MaxSyncAttempts int

	// RetryBase is the first retry backoff; it doubles per attempt.
	RetryBase time.Duration

	// RequestTimeout bounds each remote HTTP call.
	RequestTimeout time.Duration

	// RetainCompleted keeps done queue entries instead of purging them
	// after a drain.
	RetainCompleted bool

	// RebindPhotosToServer moves photos to the server id once their entity
	// is created remotely.
	RebindPhotosToServer bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "fieldsync.db"
	c.RemoteBaseURL = "http://127.0.0.1:8080"
	c.ListenAddr = "127.0.0.1:7171"
	c.OnlineCheckInterval = 10 * time.Second
	c.DebounceWindow = 2 * time.Second
	c.MaxSyncAttempts = 3
	c.RetryBase = 500 * time.Millisecond
	c.RequestTimeout = 15 * time.Second
	c.RetainCompleted = false
	c.RebindPhotosToServer = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
