package metrics

import "time"

// NoopMetrics discards every event
type NoopMetrics struct{}

var _ Recorder = NoopMetrics{}

// NewNoop returns a Recorder that does nothing
func NewNoop() Recorder {
	return NoopMetrics{}
}

func (NoopMetrics) RecordAttempt(outcome string, duration time.Duration) {}
func (NoopMetrics) RecordSkip()                                          {}
func (NoopMetrics) RecordTransportError()                                {}
func (NoopMetrics) RecordFinding(kind string)                            {}
func (NoopMetrics) IncInFlight()                                         {}
func (NoopMetrics) DecInFlight()                                         {}
