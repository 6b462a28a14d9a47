package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUploadAccepted is a no-op.
func (n *NoopRecorder) IncUploadAccepted() {}

// IncUploadRejected is a no-op.
func (n *NoopRecorder) IncUploadRejected(reason string) {}

// IncAnalysisCompleted is a no-op.
func (n *NoopRecorder) IncAnalysisCompleted() {}

// IncAnalysisFallback is a no-op.
func (n *NoopRecorder) IncAnalysisFallback() {}

// IncUpstreamError is a no-op.
func (n *NoopRecorder) IncUpstreamError() {}

// ObserveAnalyzeDuration is a no-op.
func (n *NoopRecorder) ObserveAnalyzeDuration(duration time.Duration) {}

// IncAnalysisCacheHit is a no-op.
func (n *NoopRecorder) IncAnalysisCacheHit() {}

// IncAnalysisCacheMiss is a no-op.
func (n *NoopRecorder) IncAnalysisCacheMiss() {}
