package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// outcomes lists every outcome label so the state set is always complete.
var outcomes = []string{"FOUND", "FOUND_IN_SPAM", "NOT_FOUND", "UNDEFINED"}

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	messagesSent prometheus.Counter

	searchPassesTotal    *prometheus.CounterVec
	messagesScannedTotal *prometheus.CounterVec
	messagesDeletedTotal *prometheus.CounterVec

	outcome         *prometheus.GaugeVec
	failure         *prometheus.GaugeVec
	searchPasses    prometheus.Gauge
	durationSeconds prometheus.Gauge
	lastRun         prometheus.Gauge

	now func() time.Time
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailprobe_messages_sent_total",
			Help: "Total number of probe messages accepted by the SMTP server.",
		}),

		searchPassesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailprobe_search_passes_total",
			Help: "Total number of mailbox examinations.",
		}, []string{"mailbox"}),
		messagesScannedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailprobe_messages_scanned_total",
			Help: "Total number of messages fetched and checked for the token.",
		}, []string{"mailbox"}),
		messagesDeletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailprobe_messages_deleted_total",
			Help: "Total number of probe messages flagged for deletion.",
		}, []string{"mailbox"}),

		outcome: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mailprobe_outcome",
			Help: "Outcome of the last run; 1 for the reached outcome, 0 otherwise.",
		}, []string{"outcome"}),
		failure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mailprobe_failure",
			Help: "1 when the last run aborted with an error of the given class.",
		}, []string{"class"}),
		searchPasses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mailprobe_last_search_passes",
			Help: "Number of mailbox examinations in the last run.",
		}),
		durationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mailprobe_last_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mailprobe_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),

		now: time.Now,
	}

	reg.MustRegister(
		c.messagesSent,
		c.searchPassesTotal,
		c.messagesScannedTotal,
		c.messagesDeletedTotal,
		c.outcome,
		c.failure,
		c.searchPasses,
		c.durationSeconds,
		c.lastRun,
	)

	return c
}

// MessageSent increments the sent counter.
func (c *PrometheusCollector) MessageSent() {
	c.messagesSent.Inc()
}

// SearchPass increments the pass counter for mailbox.
func (c *PrometheusCollector) SearchPass(mailbox string) {
	c.searchPassesTotal.WithLabelValues(mailbox).Inc()
}

// MessageScanned increments the scanned counter for mailbox.
func (c *PrometheusCollector) MessageScanned(mailbox string) {
	c.messagesScannedTotal.WithLabelValues(mailbox).Inc()
}

// MessageDeleted increments the deleted counter for mailbox.
func (c *PrometheusCollector) MessageDeleted(mailbox string) {
	c.messagesDeletedTotal.WithLabelValues(mailbox).Inc()
}

// RunCompleted records the outcome of a finished run.
func (c *PrometheusCollector) RunCompleted(outcome string, passes int, elapsed time.Duration) {
	for _, o := range outcomes {
		v := 0.0
		if o == outcome {
			v = 1
		}
		c.outcome.WithLabelValues(o).Set(v)
	}
	c.finish(passes, elapsed)
}

// RunFailed records an aborted run.
func (c *PrometheusCollector) RunFailed(class string, passes int, elapsed time.Duration) {
	for _, o := range outcomes {
		c.outcome.WithLabelValues(o).Set(0)
	}
	c.failure.WithLabelValues(class).Set(1)
	c.finish(passes, elapsed)
}

func (c *PrometheusCollector) finish(passes int, elapsed time.Duration) {
	c.searchPasses.Set(float64(passes))
	c.durationSeconds.Set(elapsed.Seconds())
	c.lastRun.Set(float64(c.now().Unix()))
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, atomically, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
