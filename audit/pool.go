package audit

import (
	"maps"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kochabx/authguard/log"
)

// AsyncSink dispatches events to a delegate on a bounded worker pool so
// that slow sinks (database writes) never stall request handling. Events
// are dropped, with a log line, when the pool is saturated.
type AsyncSink struct {
	delegate Sink
	pool     *ants.Pool
}

// NewAsyncSink wraps a delegate sink with an ants worker pool of the given
// size.
func NewAsyncSink(delegate Sink, size int) (*AsyncSink, error) {
	if size <= 0 {
		size = 8
	}

	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &AsyncSink{
		delegate: delegate,
		pool:     pool,
	}, nil
}

// Record submits the event to the pool.
func (s *AsyncSink) Record(eventType, severity, message string, metadata map[string]string) {
	// Copy the metadata: the caller may reuse its map after Record returns.
	var meta map[string]string
	if len(metadata) > 0 {
		meta = make(map[string]string, len(metadata))
		maps.Copy(meta, metadata)
	}

	err := s.pool.Submit(func() {
		s.delegate.Record(eventType, severity, message, meta)
	})
	if err != nil {
		log.Warn().
			Str("event_type", eventType).
			Err(err).
			Msg("audit event dropped: worker pool saturated")
	}
}

// Close releases the worker pool, waiting briefly for in-flight events.
func (s *AsyncSink) Close() {
	_ = s.pool.ReleaseTimeout(5 * time.Second)
}

var _ Sink = (*AsyncSink)(nil)
