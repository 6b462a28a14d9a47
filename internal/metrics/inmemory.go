package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UploadsAccepted        uint64
	UploadsRejectedType    uint64
	UploadsRejectedSize    uint64
	UploadsRejectedEmpty   uint64
	AnalysesCompleted      uint64
	AnalysesFallback       uint64
	UpstreamErrors         uint64
	AnalyzeDurationCount   uint64
	AnalyzeDurationTotalNs int64
	AnalysisCacheHits      uint64
	AnalysisCacheMisses    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	uploadsAccepted        uint64
	uploadsRejectedType    uint64
	uploadsRejectedSize    uint64
	uploadsRejectedEmpty   uint64
	analysesCompleted      uint64
	analysesFallback       uint64
	upstreamErrors         uint64
	analyzeDurationCount   uint64
	analyzeDurationTotalNs int64
	analysisCacheHits      uint64
	analysisCacheMisses    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UploadsAccepted:        atomic.LoadUint64(&m.uploadsAccepted),
		UploadsRejectedType:    atomic.LoadUint64(&m.uploadsRejectedType),
		UploadsRejectedSize:    atomic.LoadUint64(&m.uploadsRejectedSize),
		UploadsRejectedEmpty:   atomic.LoadUint64(&m.uploadsRejectedEmpty),
		AnalysesCompleted:      atomic.LoadUint64(&m.analysesCompleted),
		AnalysesFallback:       atomic.LoadUint64(&m.analysesFallback),
		UpstreamErrors:         atomic.LoadUint64(&m.upstreamErrors),
		AnalyzeDurationCount:   atomic.LoadUint64(&m.analyzeDurationCount),
		AnalyzeDurationTotalNs: atomic.LoadInt64(&m.analyzeDurationTotalNs),
		AnalysisCacheHits:      atomic.LoadUint64(&m.analysisCacheHits),
		AnalysisCacheMisses:    atomic.LoadUint64(&m.analysisCacheMisses),
	}
}

// IncUploadAccepted increments the accepted upload counter.
func (m *InMemoryRecorder) IncUploadAccepted() {
	atomic.AddUint64(&m.uploadsAccepted, 1)
}

// IncUploadRejected increments the rejection counter for a reason.
func (m *InMemoryRecorder) IncUploadRejected(reason string) {
	switch reason {
	case "type":
		atomic.AddUint64(&m.uploadsRejectedType, 1)
	case "size":
		atomic.AddUint64(&m.uploadsRejectedSize, 1)
	case "empty":
		atomic.AddUint64(&m.uploadsRejectedEmpty, 1)
	}
}

// IncAnalysisCompleted increments the completed analysis counter.
func (m *InMemoryRecorder) IncAnalysisCompleted() {
	atomic.AddUint64(&m.analysesCompleted, 1)
}

// IncAnalysisFallback increments the fallback analysis counter.
func (m *InMemoryRecorder) IncAnalysisFallback() {
	atomic.AddUint64(&m.analysesFallback, 1)
}

// IncUpstreamError increments the upstream error counter.
func (m *InMemoryRecorder) IncUpstreamError() {
	atomic.AddUint64(&m.upstreamErrors, 1)
}

// ObserveAnalyzeDuration records end-to-end analysis duration.
func (m *InMemoryRecorder) ObserveAnalyzeDuration(duration time.Duration) {
	atomic.AddUint64(&m.analyzeDurationCount, 1)
	atomic.AddInt64(&m.analyzeDurationTotalNs, duration.Nanoseconds())
}

// IncAnalysisCacheHit increments the record cache hit counter.
func (m *InMemoryRecorder) IncAnalysisCacheHit() {
	atomic.AddUint64(&m.analysisCacheHits, 1)
}

// IncAnalysisCacheMiss increments the record cache miss counter.
func (m *InMemoryRecorder) IncAnalysisCacheMiss() {
	atomic.AddUint64(&m.analysisCacheMisses, 1)
}
