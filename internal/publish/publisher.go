// Package publish emits top-of-book snapshots as CSV rows to any
// io.Writer sink.
package publish

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"marketfeed/internal/book"
)

const header = "ts_us,symbol,bid_px,bid_sz,ask_px,ask_sz\n"

// Publisher writes header-then-rows CSV of top-of-book snapshots. It
// flushes after every row so a tailing downstream reader never waits
// on buffered output. Not safe for concurrent use by more than one
// writer goroutine.
type Publisher struct {
	w        *bufio.Writer
	wroteHdr bool
	once     sync.Once
}

// New wraps sink in a Publisher.
func New(sink io.Writer) *Publisher {
	return &Publisher{w: bufio.NewWriter(sink)}
}

// Publish writes one CSV row for symbol's top-of-book snapshot at
// tsUs, writing the header first if this is the first call.
func (p *Publisher) Publish(tsUs uint64, symbol string, tob book.TopOfBook) error {
	p.once.Do(func() {
		_, _ = p.w.WriteString(header)
	})

	var bidPx, bidSz, askPx, askSz string
	if tob.HasBid() {
		bidPx = formatNano(tob.BestBidPx)
		bidSz = fmt.Sprintf("%d", tob.BidSz)
	}
	if tob.HasAsk() {
		askPx = formatNano(tob.BestAskPx)
		askSz = fmt.Sprintf("%d", tob.AskSz)
	}

	_, err := fmt.Fprintf(p.w, "%d,%s,%s,%s,%s,%s\n", tsUs, symbol, bidPx, bidSz, askPx, askSz)
	if err != nil {
		return err
	}
	return p.w.Flush()
}

// formatNano renders a nano-unit fixed-point price as a decimal string
// with nine fractional digits.
func formatNano(priceNano int64) string {
	neg := priceNano < 0
	if neg {
		priceNano = -priceNano
	}
	whole := priceNano / 1_000_000_000
	frac := priceNano % 1_000_000_000
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%09d", sign, whole, frac)
}
