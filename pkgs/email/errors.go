package email

import "errors"

// Transport error classes. Every error returned by SMTPClient and IMAPClient
// wraps exactly one of these so callers can tell a broken probe
// infrastructure apart from an undelivered message.
var (
	// ErrConnect means the server could not be reached or the TLS
	// handshake failed.
	ErrConnect = errors.New("connection failed")

	// ErrAuth means the server rejected the credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrSend means the SMTP server refused the envelope or the message data.
	ErrSend = errors.New("send failed")

	// ErrMailboxNotFound means SELECT was refused for the requested mailbox.
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrProtocol covers any other failed IMAP command on an established
	// session.
	ErrProtocol = errors.New("protocol error")
)
