// Package config loads runtime configuration for the fieldsync service.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-f string   path to the local SQLite database file
//	-r string   base URL of the collaborator REST API
//	-l string   listen address of the local HTTP surface
//	-i int      online check interval (seconds)
//	-w int      connectivity debounce window (seconds)
//	-m int      max sync attempts per queue entry
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "database_path": "fieldsync.db",
//	  "remote_base_url": "https://api.example.com",
//	  "listen_addr": "127.0.0.1:7171",
//	  "online_check_interval": "10s",
//	  "debounce_window": "2s",
//	  "max_sync_attempts": 3,
//	  "retry_base": "500ms",
//	  "request_timeout": "15s",
//	  "retain_completed": false,
//	  "rebind_photos_to_server": true
//	}
//
// Note: this package does not read environment variables; use the JSON file
// or flags to configure values.
package config
