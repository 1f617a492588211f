package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// Flags holds command-line flag values. Only flags the user actually set
// override the configuration file.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath string
	Version    bool
	// StoreCredentials saves the given passwords in the OS keyring instead
	// of running the check.
	StoreCredentials bool
	values           Config
}

// NewFlags registers the check flags on fs.
func NewFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	v := &f.values
	d := Default()

	fs.StringVar(&f.ConfigPath, "config", "", "Path to a TOML configuration file")
	fs.BoolVar(&f.Version, "version", false, "Print version and exit")
	fs.BoolVar(&f.StoreCredentials, "store-credentials", false, "Save --smtp-pass/--imap-pass in the keyring named by --keyring-service and exit")

	fs.StringVar(&v.MailFrom, "mail-from", "", "Sender address of the test message")
	fs.StringVar(&v.MailTo, "mail-to", "", "Recipient address of the test message")

	fs.StringVar(&v.SMTP.Host, "smtp-host", "", "SMTP server hostname")
	fs.IntVar(&v.SMTP.Port, "smtp-port", d.SMTP.Port, "SMTP server port (587 uses STARTTLS, others implicit TLS)")
	fs.StringVar(&v.SMTP.Username, "smtp-user", "", "SMTP username")
	fs.StringVar(&v.SMTP.Password, "smtp-pass", "", "SMTP password (or $SMTP_PASS)")

	fs.StringVar(&v.IMAP.Host, "imap-host", "", "IMAP server hostname")
	fs.IntVar(&v.IMAP.Port, "imap-port", d.IMAP.Port, "IMAP server port (implicit TLS)")
	fs.StringVar(&v.IMAP.Username, "imap-user", "", "IMAP username")
	fs.StringVar(&v.IMAP.Password, "imap-pass", "", "IMAP password (or $IMAP_PASS)")

	fs.StringVar(&v.SpamMailbox, "imap-spam", "", "Spam mailbox to search after INBOX")
	fs.BoolVar(&v.SearchBody, "imap-body", false, "Search the message body instead of the header")
	fs.BoolVar(&v.Cleanup, "imap-cleanup", false, "Delete the test message once found")
	fs.IntVar(&v.Delay, "delay", d.Delay, "Seconds to wait before each mailbox check")
	fs.IntVar(&v.Retries, "retries", d.Retries, "Number of attempts over all mailboxes")

	fs.BoolVar(&v.Debug, "debug", false, "Enable debug logging on stderr")
	fs.BoolVar(&v.InsecureSkipVerify, "insecure-skip-verify", false, "Do not verify server certificates")
	fs.StringVar(&v.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	fs.StringVar(&v.Archive, "archive", "", "Append the found test message to this mbox file")
	fs.StringVar(&v.KeyringService, "keyring-service", "", "OS keyring service holding smtp-pass and imap-pass")

	return f
}

// Load parses a TOML configuration file on top of Default. An empty path or
// a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// ApplyFlags overrides cfg with every flag that was set explicitly.
func ApplyFlags(cfg Config, f *Flags) Config {
	v := f.values
	set := func(name string) bool { return f.fs.Changed(name) }

	if set("mail-from") {
		cfg.MailFrom = v.MailFrom
	}
	if set("mail-to") {
		cfg.MailTo = v.MailTo
	}
	if set("smtp-host") {
		cfg.SMTP.Host = v.SMTP.Host
	}
	if set("smtp-port") {
		cfg.SMTP.Port = v.SMTP.Port
	}
	if set("smtp-user") {
		cfg.SMTP.Username = v.SMTP.Username
	}
	if set("smtp-pass") {
		cfg.SMTP.Password = v.SMTP.Password
	}
	if set("imap-host") {
		cfg.IMAP.Host = v.IMAP.Host
	}
	if set("imap-port") {
		cfg.IMAP.Port = v.IMAP.Port
	}
	if set("imap-user") {
		cfg.IMAP.Username = v.IMAP.Username
	}
	if set("imap-pass") {
		cfg.IMAP.Password = v.IMAP.Password
	}
	if set("imap-spam") {
		cfg.SpamMailbox = v.SpamMailbox
	}
	if set("imap-body") {
		cfg.SearchBody = v.SearchBody
	}
	if set("imap-cleanup") {
		cfg.Cleanup = v.Cleanup
	}
	if set("delay") {
		cfg.Delay = v.Delay
	}
	if set("retries") {
		cfg.Retries = v.Retries
	}
	if set("debug") {
		cfg.Debug = v.Debug
	}
	if set("insecure-skip-verify") {
		cfg.InsecureSkipVerify = v.InsecureSkipVerify
	}
	if set("metrics-file") {
		cfg.MetricsFile = v.MetricsFile
	}
	if set("archive") {
		cfg.Archive = v.Archive
	}
	if set("keyring-service") {
		cfg.KeyringService = v.KeyringService
	}
	return cfg
}

// LoadWithFlags loads the file named by --config, then applies flag
// overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}
