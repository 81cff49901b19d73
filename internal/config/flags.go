package config

import (
	"flag"
	"os"
	"time"

	"github.com/inqbatorchris/fieldsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-f string   path to the local SQLite database file
//	-r string   base URL of the collaborator REST API
//	-l string   listen address of the local HTTP surface
//	-i int      online check interval in seconds
//	-w int      connectivity debounce window in seconds
//	-m int      max sync attempts per queue entry
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-f", "-r", "-l", "-i", "-w", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "path to the local database file")
	fs.StringVar(&cfg.RemoteBaseURL, "r", cfg.RemoteBaseURL, "base URL of the remote API")
	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "local HTTP listen address")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	debounceWindow := fs.Int("w", int(cfg.DebounceWindow.Seconds()), "connectivity debounce window (in seconds)")
	fs.IntVar(&cfg.MaxSyncAttempts, "m", cfg.MaxSyncAttempts, "max sync attempts per entry")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.DebounceWindow = time.Duration(*debounceWindow) * time.Second
}
