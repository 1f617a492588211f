// Package metrics provides interfaces and implementations for recording
// mail loop probe metrics. A run is short-lived, so metrics are exported by
// writing a node-exporter textfile rather than by serving HTTP.
package metrics

import "time"

// Collector defines the interface for recording probe metrics.
type Collector interface {
	// Submission metrics
	MessageSent()

	// Retrieval metrics
	SearchPass(mailbox string)
	MessageScanned(mailbox string)
	MessageDeleted(mailbox string)

	// Run result. outcome is the outcome name, class the error class.
	RunCompleted(outcome string, passes int, elapsed time.Duration)
	RunFailed(class string, passes int, elapsed time.Duration)
}
