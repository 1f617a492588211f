package probe

import (
	"context"
	"io"

	"github.com/emx-mail/checkmail/pkgs/email"
)

// SendSession is an authenticated SMTP session.
type SendSession interface {
	SendRaw(from string, to []string, msg io.Reader) error
	Close() error
}

// Transport opens authenticated sessions. Implementations return errors
// wrapping the email.Err* classes.
type Transport interface {
	DialSMTP(ctx context.Context) (SendSession, error)
	DialIMAP(ctx context.Context) (FetchSession, error)
}

// MailTransport is the Transport backed by go-smtp and go-imap.
type MailTransport struct {
	SMTP email.SMTPConfig
	IMAP email.IMAPConfig
}

// DialSMTP connects and authenticates to the submission server.
func (t *MailTransport) DialSMTP(ctx context.Context) (SendSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := email.NewSMTPClient(t.SMTP)
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// DialIMAP connects and authenticates to the IMAP server.
func (t *MailTransport) DialIMAP(ctx context.Context) (FetchSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := email.NewIMAPClient(t.IMAP)
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}
