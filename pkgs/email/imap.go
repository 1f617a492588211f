package email

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// InboxName is the primary mailbox every IMAP server must provide.
const InboxName = "INBOX"

// IMAPClient represents an authenticated IMAP session
type IMAPClient struct {
	config   IMAPConfig
	client   *imapclient.Client
	selected string
}

// IMAPConfig holds IMAP configuration. The connection always uses implicit
// TLS; there is no STARTTLS or plaintext variant.
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// InsecureSkipVerify disables certificate verification. TLS is still used.
	InsecureSkipVerify bool
}

// NewIMAPClient creates a new IMAP client
func NewIMAPClient(config IMAPConfig) *IMAPClient {
	return &IMAPClient{
		config: config,
	}
}

// Addr returns the host:port the client dials.
func (c *IMAPClient) Addr() string {
	return fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
}

// Connect establishes a TLS connection to the IMAP server and logs in
func (c *IMAPClient) Connect() error {
	addr := c.Addr()

	client, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{
			ServerName:         c.config.Host,
			InsecureSkipVerify: c.config.InsecureSkipVerify,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: IMAP server %s: %w", ErrConnect, addr, err)
	}

	if err := client.Login(c.config.Username, c.config.Password).Wait(); err != nil {
		client.Close()
		return fmt.Errorf("%w: IMAP user %s: %w", ErrAuth, c.config.Username, err)
	}

	c.client = client
	return nil
}

func (c *IMAPClient) requireConn() error {
	if c.client == nil {
		return fmt.Errorf("%w: IMAP session is not connected", ErrProtocol)
	}
	return nil
}

// Select opens mailbox read-write. A SELECT refused because the mailbox does
// not exist is reported as ErrMailboxNotFound, any other failure as
// ErrProtocol.
func (c *IMAPClient) Select(mailbox string) error {
	if err := c.requireConn(); err != nil {
		return err
	}
	if _, err := c.client.Select(mailbox, nil).Wait(); err != nil {
		if isMissingMailbox(err) {
			return fmt.Errorf("%w: %q: %w", ErrMailboxNotFound, mailbox, err)
		}
		return fmt.Errorf("%w: failed to select folder %s: %w", ErrProtocol, mailbox, err)
	}
	c.selected = mailbox
	return nil
}

// ListUIDs returns the UIDs of every message in the selected mailbox, in the
// order the server reports them.
func (c *IMAPClient) ListUIDs() ([]uint32, error) {
	if err := c.requireConn(); err != nil {
		return nil, err
	}
	data, err := c.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: search failed in %s: %w", ErrProtocol, c.selected, err)
	}
	all := data.AllUIDs()
	uids := make([]uint32, 0, len(all))
	for _, uid := range all {
		uids = append(uids, uint32(uid))
	}
	return uids, nil
}

// FetchRaw returns the complete RFC 5322 message. BODY.PEEK is used so the
// \Seen flag is left alone.
func (c *IMAPClient) FetchRaw(uid uint32) ([]byte, error) {
	if err := c.requireConn(); err != nil {
		return nil, err
	}
	section := &imap.FetchItemBodySection{Peek: true}
	msgs, err := c.client.Fetch(imap.UIDSetNum(imap.UID(uid)), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch message UID %d: %w", ErrProtocol, uid, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: message UID %d not found in %s", ErrProtocol, uid, c.selected)
	}
	return msgs[0].FindBodySection(section), nil
}

// MarkDeleted adds the \Deleted flag to a message
func (c *IMAPClient) MarkDeleted(uid uint32) error {
	if err := c.requireConn(); err != nil {
		return err
	}
	_, err := c.client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil).Collect()
	if err != nil {
		return fmt.Errorf("%w: failed to mark message as deleted: %w", ErrProtocol, err)
	}
	return nil
}

// Expunge permanently removes messages flagged \Deleted in the selected mailbox
func (c *IMAPClient) Expunge() error {
	if err := c.requireConn(); err != nil {
		return err
	}
	if _, err := c.client.Expunge().Collect(); err != nil {
		return fmt.Errorf("%w: failed to expunge messages: %w", ErrProtocol, err)
	}
	return nil
}

// CloseMailbox leaves the selected mailbox. UNSELECT is preferred because
// CLOSE silently expunges; CLOSE is only used on servers without UNSELECT.
func (c *IMAPClient) CloseMailbox() error {
	if err := c.requireConn(); err != nil {
		return err
	}
	var err error
	if c.client.Caps().Has(imap.CapUnselect) {
		err = c.client.Unselect().Wait()
	} else {
		err = c.client.UnselectAndExpunge().Wait()
	}
	if err != nil {
		return fmt.Errorf("%w: failed to close folder %s: %w", ErrProtocol, c.selected, err)
	}
	c.selected = ""
	return nil
}

// Logout ends the session and closes the connection
func (c *IMAPClient) Logout() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Logout().Wait()
	c.client.Close()
	c.client = nil
	c.selected = ""
	if err != nil {
		return fmt.Errorf("%w: logout failed: %w", ErrProtocol, err)
	}
	return nil
}

// Close closes the IMAP connection without logging out
func (c *IMAPClient) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// isMissingMailbox reports whether a failed SELECT means the mailbox does
// not exist: a NONEXISTENT response code, or a bare NO without any code.
// NO with another code (NOPERM, LIMIT, ...) is a different refusal.
func isMissingMailbox(err error) bool {
	var imapErr *imap.Error
	if !errors.As(err, &imapErr) {
		return false
	}
	if imapErr.Code == imap.ResponseCodeNonExistent {
		return true
	}
	return imapErr.Type == imap.StatusResponseTypeNo && imapErr.Code == ""
}
