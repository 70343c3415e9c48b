package pipeline

// Stats accumulates consumer-local counters and latency accounting.
// It is touched only by the consumer goroutine and is safe to read
// once the consumer has stopped.
type Stats struct {
	EventsDecoded  uint64
	EventsInvalid  uint64
	EventsApplied  uint64
	EventsRejected uint64
	LastLatencyUs  uint64

	minLatencyUs uint64
	maxLatencyUs uint64
	sumLatencyUs uint64
	latencyCount uint64
}

// observeLatency folds one decode-to-apply latency sample into the
// running min/max/sum.
func (s *Stats) observeLatency(us uint64) {
	s.LastLatencyUs = us
	if s.latencyCount == 0 || us < s.minLatencyUs {
		s.minLatencyUs = us
	}
	if us > s.maxLatencyUs {
		s.maxLatencyUs = us
	}
	s.sumLatencyUs += us
	s.latencyCount++
}

// MinLatencyUs returns the smallest observed decode-to-apply latency.
func (s *Stats) MinLatencyUs() uint64 { return s.minLatencyUs }

// MaxLatencyUs returns the largest observed decode-to-apply latency.
func (s *Stats) MaxLatencyUs() uint64 { return s.maxLatencyUs }

// MeanLatencyUs returns the arithmetic mean decode-to-apply latency,
// or 0 if no events have been applied yet.
func (s *Stats) MeanLatencyUs() uint64 {
	if s.latencyCount == 0 {
		return 0
	}
	return s.sumLatencyUs / s.latencyCount
}
