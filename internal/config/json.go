package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/inqbatorchris/fieldsync/internal/flagx"
	"github.com/inqbatorchris/fieldsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so JSON can specify them either as strings like "3s" or as
// integer nanoseconds. Booleans are pointers so an absent key leaves the
// default in place.
type JsonConfig struct {
	DatabasePath         string         `json:"database_path"`
	RemoteBaseURL        string         `json:"remote_base_url"`
	ListenAddr           string         `json:"listen_addr"`
	OnlineCheckInterval  timex.Duration `json:"online_check_interval"`
	DebounceWindow       timex.Duration `json:"debounce_window"`
	MaxSyncAttempts      int            `json:"max_sync_attempts"`
	RetryBase            timex.Duration `json:"retry_base"`
	RequestTimeout       timex.Duration `json:"request_timeout"`
	RetainCompleted      *bool          `json:"retain_completed"`
	RebindPhotosToServer *bool          `json:"rebind_photos_to_server"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. Absent keys keep their current value; read or unmarshal
// errors panic (configuration is unusable, caller decides whether to
// recover).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.RemoteBaseURL != "" {
		cfg.RemoteBaseURL = jc.RemoteBaseURL
	}
	if jc.ListenAddr != "" {
		cfg.ListenAddr = jc.ListenAddr
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.DebounceWindow.Duration != 0 {
		cfg.DebounceWindow = time.Duration(jc.DebounceWindow.Duration)
	}
	if jc.MaxSyncAttempts != 0 {
		cfg.MaxSyncAttempts = jc.MaxSyncAttempts
	}
	if jc.RetryBase.Duration != 0 {
		cfg.RetryBase = time.Duration(jc.RetryBase.Duration)
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.RetainCompleted != nil {
		cfg.RetainCompleted = *jc.RetainCompleted
	}
	if jc.RebindPhotosToServer != nil {
		cfg.RebindPhotosToServer = *jc.RebindPhotosToServer
	}
}
