// Package pipeline wires the decoder, the SPSC ring, the per-symbol
// order books, and the publisher into the producer/consumer pair that
// drives the feed end to end.
package pipeline

import (
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"marketfeed/internal/book"
	"marketfeed/internal/clock"
	"marketfeed/internal/feed"
	"marketfeed/internal/publish"
	"marketfeed/internal/ring"
)

// ringCapacity is the SPSC ring's capacity; it must be a power of two.
// Usable capacity is ringCapacity-1.
const ringCapacity = 1 << 16

// BroadcastSink receives every published row once it has gone to the
// publisher, on a best-effort, non-blocking basis. It never affects
// pipeline correctness or termination.
type BroadcastSink interface {
	Publish(row BroadcastRow)
}

// BroadcastRow mirrors one published top-of-book snapshot.
type BroadcastRow struct {
	TsUs   uint64
	Symbol string
	Tob    book.TopOfBook
}

// Pipeline owns the decoder, the ring, the per-symbol books, and the
// shared shutdown flag for one run of the feed.
type Pipeline struct {
	decoder *feed.Decoder
	ring    *ring.Ring[feed.Event]
	books   map[feed.Symbol]*book.OrderBook
	routing map[uint64]*book.OrderBook

	symbols           []feed.Symbol
	publishIntervalUs uint64
	publisher         *publish.Publisher
	broadcast         BroadcastSink
	log               *zap.Logger

	shutdown      atomic.Bool
	eventsDecoded atomic.Uint64
	eventsInvalid atomic.Uint64
	stats         Stats
}

// New constructs a Pipeline over dec, publishing to pub at most once
// every publishIntervalUs per symbol. symbols lists every symbol the
// pipeline tracks a book for.
func New(dec *feed.Decoder, pub *publish.Publisher, symbols []string, publishIntervalUs uint64, log *zap.Logger) *Pipeline {
	books := make(map[feed.Symbol]*book.OrderBook, len(symbols))
	syms := make([]feed.Symbol, 0, len(symbols))
	for _, s := range symbols {
		sym := feed.NewSymbol(s)
		books[sym] = book.NewOrderBook()
		syms = append(syms, sym)
	}

	return &Pipeline{
		decoder:           dec,
		ring:              ring.New[feed.Event](ringCapacity),
		books:             books,
		routing:           make(map[uint64]*book.OrderBook),
		symbols:           syms,
		publishIntervalUs: publishIntervalUs,
		publisher:         pub,
		log:               log,
	}
}

// SetBroadcast attaches an optional downstream broadcast sink.
func (p *Pipeline) SetBroadcast(b BroadcastSink) { p.broadcast = b }

// Shutdown requests cooperative termination. Both goroutines observe
// it on their next loop turn; the consumer still drains events
// already enqueued before it exits.
func (p *Pipeline) Shutdown() { p.shutdown.Store(true) }

// Stats returns a snapshot of the run's counters. Safe to call once
// Run has returned; the decoded/invalid counters are also safe to
// poll while Run is in progress, since they are updated atomically by
// the producer goroutine.
func (p *Pipeline) Stats() Stats {
	s := p.stats
	s.EventsDecoded = p.eventsDecoded.Load()
	s.EventsInvalid = p.eventsInvalid.Load()
	return s
}

// Run drives the producer and consumer goroutines to completion: the
// decoder exhausted and the ring drained, or an external Shutdown.
func (p *Pipeline) Run() {
	done := make(chan struct{})
	go func() {
		p.produce()
		close(done)
	}()
	p.consume(done)
}

func (p *Pipeline) produce() {
	for p.decoder.HasNext() {
		if p.shutdown.Load() {
			return
		}
		ev := p.decoder.Next()
		if ev.Kind == feed.KindInvalid {
			p.eventsInvalid.Add(1)
			continue
		}
		p.eventsDecoded.Add(1)
		for !p.ring.TryPush(ev) {
			if p.shutdown.Load() {
				return
			}
			runtime.Gosched()
		}
	}
}

// consume drains the ring until producerDone is closed and the ring
// is empty, or until shutdown is requested.
func (p *Pipeline) consume(producerDone <-chan struct{}) {
	var lastPublishUs uint64
	var ev feed.Event

	for {
		if p.ring.TryPop(&ev) {
			p.apply(ev)
			p.maybePublish(&lastPublishUs)
			continue
		}

		select {
		case <-producerDone:
			if !p.ring.TryPop(&ev) {
				return
			}
			p.apply(ev)
			p.maybePublish(&lastPublishUs)
		default:
			if p.shutdown.Load() {
				return
			}
			runtime.Gosched()
		}
	}
}

func (p *Pipeline) apply(ev feed.Event) {
	nowUs := clock.NowUs()
	if ev.DecodeTimestampUs != 0 && nowUs >= ev.DecodeTimestampUs {
		p.stats.observeLatency(nowUs - ev.DecodeTimestampUs)
	}

	var accepted bool
	switch ev.Kind {
	case feed.KindAddOrder:
		b, ok := p.books[ev.Add.Symbol]
		if !ok {
			return
		}
		accepted = b.OnAdd(ev.Add.OrderID, ev.Add.Side, ev.Add.PxNano, ev.Add.Qty)
		if accepted {
			p.routing[ev.Add.OrderID] = b
		}

	case feed.KindModifyOrder:
		b, ok := p.routing[ev.Modify.OrderID]
		if !ok {
			return
		}
		accepted = b.OnModify(ev.Modify.OrderID, ev.Modify.NewPxNano, ev.Modify.NewQty)

	case feed.KindExecuteOrder:
		b, ok := p.routing[ev.Execute.OrderID]
		if !ok {
			return
		}
		accepted = b.OnExecute(ev.Execute.OrderID, ev.Execute.ExecQty)
		if accepted {
			if _, stillLive := b.Lookup(ev.Execute.OrderID); !stillLive {
				delete(p.routing, ev.Execute.OrderID)
			}
		}

	case feed.KindDeleteOrder:
		b, ok := p.routing[ev.Delete.OrderID]
		if !ok {
			return
		}
		accepted = b.OnDelete(ev.Delete.OrderID)
		if accepted {
			delete(p.routing, ev.Delete.OrderID)
		}

	default:
		return
	}

	if accepted {
		p.stats.EventsApplied++
	} else {
		p.stats.EventsRejected++
	}
}

func (p *Pipeline) maybePublish(lastPublishUs *uint64) {
	nowUs := clock.NowUs()
	if nowUs-*lastPublishUs < p.publishIntervalUs {
		return
	}
	*lastPublishUs = nowUs

	for _, sym := range p.symbols {
		tob := p.books[sym].TopOfBook()
		if err := p.publisher.Publish(nowUs, sym.String(), tob); err != nil {
			p.log.Warn("publish failed", zap.String("symbol", sym.String()), zap.Error(err))
			continue
		}
		if p.broadcast != nil {
			p.broadcast.Publish(BroadcastRow{TsUs: nowUs, Symbol: sym.String(), Tob: tob})
		}
	}
}

// LogSummary emits the final stats snapshot via log at Info level.
func (p *Pipeline) LogSummary() {
	s := p.Stats()
	p.log.Info("pipeline finished",
		zap.Uint64("events_decoded", s.EventsDecoded),
		zap.Uint64("events_invalid", s.EventsInvalid),
		zap.Uint64("events_applied", s.EventsApplied),
		zap.Uint64("events_rejected", s.EventsRejected),
		zap.Uint64("min_latency_us", s.MinLatencyUs()),
		zap.Uint64("mean_latency_us", s.MeanLatencyUs()),
		zap.Uint64("max_latency_us", s.MaxLatencyUs()),
	)
}
