package metrics

import "time"

// ContentMetrics observes static content store operations.
//
// store is the backend name ("filesystem", "memory", "s3").
type ContentMetrics interface {
	// ObserveOperation records one store call; err is nil on success.
	ObserveOperation(store, operation string, duration time.Duration, err error)

	// RecordBytes records bytes moved; direction is "read" or "write".
	RecordBytes(store, direction string, bytes int64)
}

// CacheMetrics observes the static content read cache.
type CacheMetrics interface {
	RecordHit()
	RecordMiss()
	RecordEviction()

	// SetSize reports the current number of cached entries and their total bytes.
	SetSize(entries int, bytes int64)
}

// NewNoopContentMetrics returns a ContentMetrics that discards everything.
func NewNoopContentMetrics() ContentMetrics {
	return noopContentMetrics{}
}

// NewNoopCacheMetrics returns a CacheMetrics that discards everything.
func NewNoopCacheMetrics() CacheMetrics {
	return noopCacheMetrics{}
}

type noopContentMetrics struct{}

func (noopContentMetrics) ObserveOperation(string, string, time.Duration, error) {}
func (noopContentMetrics) RecordBytes(string, string, int64)                     {}

type noopCacheMetrics struct{}

func (noopCacheMetrics) RecordHit()          {}
func (noopCacheMetrics) RecordMiss()         {}
func (noopCacheMetrics) RecordEviction()     {}
func (noopCacheMetrics) SetSize(int, int64) {}
