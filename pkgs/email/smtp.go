package email

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPStartTLSPort is the submission port. Connections to it are upgraded
// with STARTTLS; every other port uses implicit TLS.
const SMTPStartTLSPort = 587

// SMTPClient represents an authenticated SMTP submission session
type SMTPClient struct {
	config SMTPConfig
	client *smtp.Client
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// StartTLS upgrades a plaintext connection before authenticating.
	// When false the connection is TLS from the first byte.
	StartTLS bool
	// InsecureSkipVerify disables certificate verification. TLS is still used.
	InsecureSkipVerify bool
}

// UsesStartTLS reports whether port selects STARTTLS instead of implicit TLS.
func UsesStartTLS(port int) bool {
	return port == SMTPStartTLSPort
}

// NewSMTPClient creates a new SMTP client
func NewSMTPClient(config SMTPConfig) *SMTPClient {
	return &SMTPClient{
		config: config,
	}
}

// Addr returns the host:port the client dials.
func (c *SMTPClient) Addr() string {
	return fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
}

// Connect dials the server over TLS (implicit or STARTTLS) and logs in with
// AUTH PLAIN. Plaintext sessions are never used.
func (c *SMTPClient) Connect() error {
	tlsCfg := &tls.Config{
		ServerName:         c.config.Host,
		InsecureSkipVerify: c.config.InsecureSkipVerify,
	}

	dialFn := smtp.DialTLS
	if c.config.StartTLS {
		dialFn = smtp.DialStartTLS
	}

	addr := c.Addr()
	client, err := dialFn(addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("%w: SMTP server %s: %w", ErrConnect, addr, err)
	}

	auth := sasl.NewPlainClient("", c.config.Username, c.config.Password)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return fmt.Errorf("%w: SMTP user %s: %w", ErrAuth, c.config.Username, err)
	}

	c.client = client
	return nil
}

// SendRaw submits an already rendered RFC 5322 message. The envelope
// addresses are handed to the server as given.
func (c *SMTPClient) SendRaw(from string, to []string, msg io.Reader) error {
	if c.client == nil {
		if err := c.Connect(); err != nil {
			return err
		}
		defer c.Close()
	}

	if err := c.client.SendMail(from, to, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}

// Close ends the session with QUIT and closes the connection
func (c *SMTPClient) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Quit()
	if err != nil {
		c.client.Close()
	}
	c.client = nil
	return err
}

// GenerateMessageID produces a RFC 5322 compliant Message-ID using the
// domain extracted from the sender's email address.
// Format: <timestamp.random@domain>
func GenerateMessageID(fromEmail string) string {
	domain := "localhost"
	if idx := strings.LastIndex(fromEmail, "@"); idx >= 0 {
		domain = strings.TrimRight(fromEmail[idx+1:], ">")
	}

	b := make([]byte, 8)
	_, _ = rand.Read(b)
	randomPart := hex.EncodeToString(b)

	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), randomPart, domain)
}
