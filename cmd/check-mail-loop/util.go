package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/emx-mail/checkmail/pkgs/config"
	"github.com/emx-mail/checkmail/pkgs/probe"
)

// unknown prints an UNKNOWN status line for errors raised before the check
// could run.
func unknown(w io.Writer, class string, err error) int {
	fmt.Fprintf(w, "UNKNOWN - %s: %v\n", class, err)
	return probe.ExitUnknown
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig merges file and flags, fills missing passwords and validates.
func loadConfig(flags *config.Flags) (config.Config, error) {
	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ResolveCredentials(cfg.CredentialSources()...); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
