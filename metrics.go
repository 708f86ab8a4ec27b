package seqbond

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    encodeCounter   prometheus.Counter
//	    encodeHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordEncode(units int, duration time.Duration, err error) {
//	    p.encodeCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordEncode is called after each scope encode.
	// units is the number of input units, duration is the total time
	// taken, err is nil if successful.
	RecordEncode(units int, duration time.Duration, err error)

	// RecordDecode is called after each scope decode.
	RecordDecode(duration time.Duration, err error)

	// RecordRegister is called after each span registration.
	RecordRegister(units int, duration time.Duration, err error)

	// RecordArchive is called after each archive write.
	// size is the serialized archive size in bytes.
	RecordArchive(size int, duration time.Duration, err error)

	// RecordLoad is called after each archive load.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEncode(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordDecode(time.Duration, error)        {}
func (NoopMetricsCollector) RecordRegister(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordArchive(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EncodeCount      atomic.Int64
	EncodeErrors     atomic.Int64
	EncodeUnits      atomic.Int64
	EncodeTotalNanos atomic.Int64
	DecodeCount      atomic.Int64
	DecodeErrors     atomic.Int64
	DecodeTotalNanos atomic.Int64
	RegisterCount    atomic.Int64
	RegisterErrors   atomic.Int64
	ArchiveCount     atomic.Int64
	ArchiveErrors    atomic.Int64
	ArchiveBytes     atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
}

// RecordEncode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEncode(units int, duration time.Duration, err error) {
	b.EncodeCount.Add(1)
	b.EncodeUnits.Add(int64(units))
	b.EncodeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EncodeErrors.Add(1)
	}
}

// RecordDecode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecode(duration time.Duration, err error) {
	b.DecodeCount.Add(1)
	b.DecodeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DecodeErrors.Add(1)
	}
}

// RecordRegister implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegister(units int, duration time.Duration, err error) {
	b.RegisterCount.Add(1)
	if err != nil {
		b.RegisterErrors.Add(1)
	}
}

// RecordArchive implements MetricsCollector.
func (b *BasicMetricsCollector) RecordArchive(size int, duration time.Duration, err error) {
	b.ArchiveCount.Add(1)
	b.ArchiveBytes.Add(int64(size))
	if err != nil {
		b.ArchiveErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EncodeCount:    b.EncodeCount.Load(),
		EncodeErrors:   b.EncodeErrors.Load(),
		EncodeUnits:    b.EncodeUnits.Load(),
		EncodeAvgNanos: b.getAvgEncodeNanos(),
		DecodeCount:    b.DecodeCount.Load(),
		DecodeErrors:   b.DecodeErrors.Load(),
		DecodeAvgNanos: b.getAvgDecodeNanos(),
		RegisterCount:  b.RegisterCount.Load(),
		RegisterErrors: b.RegisterErrors.Load(),
		ArchiveCount:   b.ArchiveCount.Load(),
		ArchiveErrors:  b.ArchiveErrors.Load(),
		ArchiveBytes:   b.ArchiveBytes.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgEncodeNanos() int64 {
	count := b.EncodeCount.Load()
	if count == 0 {
		return 0
	}
	return b.EncodeTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgDecodeNanos() int64 {
	count := b.DecodeCount.Load()
	if count == 0 {
		return 0
	}
	return b.DecodeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EncodeCount    int64
	EncodeErrors   int64
	EncodeUnits    int64
	EncodeAvgNanos int64
	DecodeCount    int64
	DecodeErrors   int64
	DecodeAvgNanos int64
	RegisterCount  int64
	RegisterErrors int64
	ArchiveCount   int64
	ArchiveErrors  int64
	ArchiveBytes   int64
	LoadCount      int64
	LoadErrors     int64
}
