package publish

import (
	"strings"
	"testing"

	"marketfeed/internal/book"
)

func TestPublishWritesHeaderOnce(t *testing.T) {
	var buf strings.Builder
	p := New(&buf)

	if err := p.Publish(1, "AAPL", book.TopOfBook{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Publish(2, "AAPL", book.TopOfBook{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "ts_us,symbol") != 1 {
		t.Fatalf("expected exactly one header row, got:\n%s", out)
	}
}

func TestPublishFormatsBothSides(t *testing.T) {
	var buf strings.Builder
	p := New(&buf)

	tob := book.TopOfBook{BestBidPx: 150_500_000_000, BidSz: 100, BestAskPx: 151_000_000_000, AskSz: 200}
	if err := p.Publish(42, "AAPL", tob); err != nil {
		t.Fatalf("publish: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	want := "42,AAPL,150.500000000,100,151.000000000,200"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
}

func TestPublishEmitsEmptyFieldsForAbsentSide(t *testing.T) {
	var buf strings.Builder
	p := New(&buf)

	tob := book.TopOfBook{BestBidPx: 100_000_000_000, BidSz: 10}
	if err := p.Publish(1, "MSFT", tob); err != nil {
		t.Fatalf("publish: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := "1,MSFT,100.000000000,10,,"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
}
