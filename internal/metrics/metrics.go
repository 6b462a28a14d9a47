// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Upload intake metrics
	IncUploadAccepted()
	IncUploadRejected(reason string) // reason: "type", "size", "empty"

	// Analysis pipeline metrics
	IncAnalysisCompleted()
	IncAnalysisFallback()
	IncUpstreamError()
	ObserveAnalyzeDuration(duration time.Duration)

	// Analysis cache metrics
	IncAnalysisCacheHit()
	IncAnalysisCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
