package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/emx-mail/checkmail/pkgs/config"
	"github.com/emx-mail/checkmail/pkgs/probe"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one check and returns the plugin exit code. The status line
// goes to stdout, logs go to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check-mail-loop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := config.NewFlags(fs)
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return probe.ExitUnknown
		}
		return unknown(stdout, "configuration", err)
	}
	if flags.Version {
		fmt.Fprintf(stdout, "check-mail-loop v%s\n", version)
		return probe.ExitOK
	}

	if flags.StoreCredentials {
		cfg, err := config.LoadWithFlags(flags)
		if err != nil {
			return unknown(stdout, "configuration", err)
		}
		if err := storeCredentials(stdout, cfg, newCredentialStore(cfg.KeyringService)); err != nil {
			return unknown(stdout, "credentials", err)
		}
		return probe.ExitOK
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return unknown(stdout, "configuration", err)
	}

	logger := newLogger(stderr, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCheck(cfg, logger)
	logger.Debug("starting mail loop check",
		slog.String("from", cfg.MailFrom),
		slog.String("to", cfg.MailTo),
		slog.String("smtp", cfg.SMTP.Addr()),
		slog.String("imap", cfg.IMAP.Addr()),
		slog.Duration("worst_case", c.prober.Retriever.WorstCase()),
	)

	res := c.prober.Run(ctx)
	if res.Err != nil {
		logger.Debug("check aborted", slog.String("error", res.Err.Error()))
	}
	c.writeMetrics()

	fmt.Fprintln(stdout, res.Status())
	return res.ExitCode()
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `check-mail-loop v%s - Mail loop check

Sends a tagged test message over SMTP and waits for it to arrive in the IMAP
INBOX (or the spam mailbox).

Usage:
  check-mail-loop [options]

Options:
%s
Passwords may also come from $SMTP_PASS and $IMAP_PASS, or from the OS keyring
items smtp-pass and imap-pass when --keyring-service is set. To fill the
keyring once:

  check-mail-loop --store-credentials --keyring-service NAME \
      --smtp-pass SECRET --imap-pass SECRET

Exit codes: 0 found in INBOX, 1 found in spam, 2 not found, 3 unknown.
`, version, fs.FlagUsages())
}
