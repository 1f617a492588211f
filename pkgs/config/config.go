// Package config holds the settings of one mail loop check.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emx-mail/checkmail/pkgs/credential"
	"github.com/emx-mail/checkmail/pkgs/email"
	"github.com/emx-mail/checkmail/pkgs/probe"
)

// Default ports.
const (
	DefaultSMTPPort = 465
	DefaultIMAPPort = 993
)

// ProtocolSettings holds connection settings common to IMAP and SMTP.
type ProtocolSettings struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Addr returns host:port.
func (p ProtocolSettings) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Config holds the check configuration.
type Config struct {
	MailFrom string `toml:"mail_from"`
	MailTo   string `toml:"mail_to"`

	SMTP ProtocolSettings `toml:"smtp"`
	IMAP ProtocolSettings `toml:"imap"`

	// SpamMailbox is searched after INBOX on every attempt when set.
	SpamMailbox string `toml:"spam_mailbox"`
	// SearchBody looks for the token line in the body instead of the header.
	SearchBody bool `toml:"search_body"`
	// Cleanup deletes the matched message.
	Cleanup bool `toml:"cleanup"`
	// Delay is the wait in seconds before every mailbox examination.
	Delay int `toml:"delay"`
	// Retries is the number of attempts over all mailboxes. Zero sends the
	// message and reports it as not found without searching.
	Retries int `toml:"retries"`

	Debug              bool   `toml:"debug"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	MetricsFile        string `toml:"metrics_file"`
	Archive            string `toml:"archive"`
	KeyringService     string `toml:"keyring_service"`
}

// Default returns a Config with the default ports, delay and retries.
func Default() Config {
	return Config{
		SMTP:    ProtocolSettings{Port: DefaultSMTPPort},
		IMAP:    ProtocolSettings{Port: DefaultIMAPPort},
		Delay:   int(probe.DefaultDelay / time.Second),
		Retries: probe.DefaultRetries,
	}
}

// DelayDuration returns Delay as a time.Duration.
func (c *Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay) * time.Second
}

// SMTPConfig returns the settings for the submission client. Port 587 is
// upgraded with STARTTLS; any other port uses implicit TLS.
func (c *Config) SMTPConfig() email.SMTPConfig {
	return email.SMTPConfig{
		Host:               c.SMTP.Host,
		Port:               c.SMTP.Port,
		Username:           c.SMTP.Username,
		Password:           c.SMTP.Password,
		StartTLS:           email.UsesStartTLS(c.SMTP.Port),
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// IMAPConfig returns the settings for the IMAP client.
func (c *Config) IMAPConfig() email.IMAPConfig {
	return email.IMAPConfig{
		Host:               c.IMAP.Host,
		Port:               c.IMAP.Port,
		Username:           c.IMAP.Username,
		Password:           c.IMAP.Password,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// CredentialSources returns the password fallbacks for c: the environment,
// then the OS keyring when KeyringService is set.
func (c *Config) CredentialSources() []credential.Source {
	sources := []credential.Source{credential.EnvSource{}}
	if c.KeyringService != "" {
		sources = append(sources, credential.NewKeyringSource(c.KeyringService))
	}
	return sources
}

// ResolveCredentials fills empty passwords from sources, in order.
func (c *Config) ResolveCredentials(sources ...credential.Source) error {
	if c.SMTP.Password == "" {
		v, err := credential.Resolve(credential.SMTPPassword, sources...)
		if err != nil {
			return fmt.Errorf("failed to resolve SMTP password: %w", err)
		}
		c.SMTP.Password = v
	}
	if c.IMAP.Password == "" {
		v, err := credential.Resolve(credential.IMAPPassword, sources...)
		if err != nil {
			return fmt.Errorf("failed to resolve IMAP password: %w", err)
		}
		c.IMAP.Password = v
	}
	return nil
}

// Validate returns the first missing or invalid setting.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"mail-from", c.MailFrom},
		{"mail-to", c.MailTo},
		{"smtp-host", c.SMTP.Host},
		{"smtp-user", c.SMTP.Username},
		{"smtp-pass", c.SMTP.Password},
		{"imap-host", c.IMAP.Host},
		{"imap-user", c.IMAP.Username},
		{"imap-pass", c.IMAP.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp-port %d", c.SMTP.Port)
	}
	if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
		return fmt.Errorf("invalid imap-port %d", c.IMAP.Port)
	}
	if c.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if c.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	if strings.EqualFold(c.SpamMailbox, email.InboxName) {
		return errors.New("imap-spam must differ from INBOX")
	}
	return nil
}
