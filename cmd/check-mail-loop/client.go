package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emx-mail/checkmail/pkgs/config"
	"github.com/emx-mail/checkmail/pkgs/email"
	"github.com/emx-mail/checkmail/pkgs/metrics"
	"github.com/emx-mail/checkmail/pkgs/probe"
)

// check bundles a configured Prober with its optional metrics registry.
type check struct {
	prober      *probe.Prober
	registry    *prometheus.Registry
	metricsFile string
	logger      *slog.Logger
}

func newCheck(cfg config.Config, logger *slog.Logger) *check {
	c := &check{logger: logger, metricsFile: cfg.MetricsFile}

	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.MetricsFile != "" {
		c.registry = prometheus.NewRegistry()
		collector = metrics.NewPrometheusCollector(c.registry)
	}

	mode := probe.SearchHeader
	if cfg.SearchBody {
		mode = probe.SearchBody
	}

	opts := probe.RetrieverOptions{
		Mailboxes: probe.NewMailboxTarget(cfg.SpamMailbox),
		Mode:      mode,
		Cleanup:   cfg.Cleanup,
		Delay:     cfg.DelayDuration(),
		Retries:   cfg.Retries,
		Logger:    logger,
		Metrics:   collector,
	}
	if cfg.Archive != "" {
		opts.Archiver = email.NewMboxArchive(cfg.Archive, cfg.MailFrom)
	}

	c.prober = &probe.Prober{
		From:      cfg.MailFrom,
		To:        cfg.MailTo,
		Transport: newTransport(cfg),
		Retriever: probe.NewRetriever(opts),
		Logger:    logger,
		Metrics:   collector,
	}
	return c
}

func newTransport(cfg config.Config) *probe.MailTransport {
	return &probe.MailTransport{
		SMTP: cfg.SMTPConfig(),
		IMAP: cfg.IMAPConfig(),
	}
}

// writeMetrics exports the run to the textfile, if configured. Failures are
// logged and never change the check result.
func (c *check) writeMetrics() {
	if c.registry == nil {
		return
	}
	if err := metrics.WriteTextfile(c.metricsFile, c.registry); err != nil {
		c.logger.Warn("failed to write metrics file",
			slog.String("path", c.metricsFile),
			slog.String("error", err.Error()),
		)
	}
}
