package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emx-mail/checkmail/pkgs/metrics"
)

// Prober runs one complete mail loop check: send, then retrieve. It is not
// safe for concurrent use and is meant to run once per process.
type Prober struct {
	From      string
	To        string
	Transport Transport
	Retriever *Retriever
	Logger    *slog.Logger
	Metrics   metrics.Collector

	// Now and NewToken default to time.Now and NewToken.
	Now      func() time.Time
	NewToken func() Token
}

// Result describes a finished run. Err is set when the run aborted; Outcome
// is then Undefined.
type Result struct {
	Outcome Outcome
	Err     error
	Token   Token
	Mailbox string
	Passes  int
	Elapsed time.Duration
}

// Run sends the probe message and polls for it. The SMTP session is closed
// before the IMAP session is opened. Any failure before or during retrieval
// ends the run immediately.
func (p *Prober) Run(ctx context.Context) Result {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	newToken := p.NewToken
	if newToken == nil {
		newToken = NewToken
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	collector := p.Metrics
	if collector == nil {
		collector = &metrics.NoopCollector{}
	}

	start := now()
	res := Result{Token: newToken()}

	finish := func(err error) Result {
		res.Err = err
		res.Passes = p.Retriever.Passes()
		res.Mailbox = p.Retriever.Matched()
		res.Elapsed = now().Sub(start)
		if err != nil {
			res.Outcome = Undefined
			collector.RunFailed(Classify(err), res.Passes, res.Elapsed)
		} else {
			collector.RunCompleted(res.Outcome.String(), res.Passes, res.Elapsed)
		}
		return res
	}

	msg := NewMessage(p.From, p.To, res.Token, start)
	raw, err := msg.Bytes()
	if err != nil {
		return finish(err)
	}

	if err := p.send(ctx, logger, raw); err != nil {
		return finish(err)
	}
	collector.MessageSent()
	logger.Debug("SMTP: mail sent", slog.String("token", res.Token.String()))

	session, err := p.Transport.DialIMAP(ctx)
	if err != nil {
		return finish(err)
	}
	logger.Debug("IMAP: log in was successful")

	res.Outcome, err = p.Retriever.Retrieve(ctx, session, res.Token)
	return finish(err)
}

func (p *Prober) send(ctx context.Context, logger *slog.Logger, raw []byte) error {
	session, err := p.Transport.DialSMTP(ctx)
	if err != nil {
		return err
	}
	logger.Debug("SMTP: log in was successful")

	sendErr := session.SendRaw(p.From, []string{p.To}, bytes.NewReader(raw))
	if err := session.Close(); err != nil && sendErr == nil {
		logger.Warn("SMTP: QUIT failed", slog.String("error", err.Error()))
	}
	if sendErr != nil {
		return fmt.Errorf("failed to send probe message: %w", sendErr)
	}
	return nil
}
