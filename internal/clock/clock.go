// Package clock provides the monotonic microsecond time source used for
// decode-to-apply latency accounting across the pipeline.
package clock

import "time"

// start anchors all NowUs() calls to a monotonic reading taken at process
// init, so latency math never depends on wall-clock time.
var start = time.Now()

// NowUs returns microseconds elapsed since process start, derived from
// Go's monotonic clock reading (time.Since never strips the monotonic
// component unless the Time has been serialized).
func NowUs() uint64 {
	return uint64(time.Since(start).Microseconds())
}
