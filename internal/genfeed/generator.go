// Package genfeed produces synthetic binary feed files for
// benchmarking and manual testing, generating Add/Modify/Execute/
// Delete records across a configured set of symbols from a seeded,
// deterministic pseudo-random source.
package genfeed

import (
	"bufio"
	"io"
	"math/rand"

	"marketfeed/internal/feed"
)

// liveOrder tracks one outstanding synthetic order so later Modify/
// Execute/Delete records reference ids this generator has added and
// not yet deleted or fully executed. The generator does not model the
// book, so such an id may belong to an Add the book rejected (for
// example as crossing).
type liveOrder struct {
	id     uint64
	symbol feed.Symbol
	side   feed.Side
	price  int64
	qty    uint32
}

// Generator produces a deterministic sequence of wire-format records.
// Every field, including each record's timestamp, is derived solely
// from the seed, so two Generators built from the same seed produce
// byte-identical output regardless of wall-clock time.
type Generator struct {
	rng     *rand.Rand
	symbols []feed.Symbol
	nextID  uint64
	nextTs  uint64
	live    []liveOrder
}

// New builds a Generator over symbols, seeded for reproducibility.
func New(symbols []string, seed int64) *Generator {
	syms := make([]feed.Symbol, len(symbols))
	for i, s := range symbols {
		syms[i] = feed.NewSymbol(s)
	}
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		symbols: syms,
		nextID:  1,
	}
}

// WriteTo writes count records to w in wire format and returns the
// number of bytes written.
func (g *Generator) WriteTo(w io.Writer, count int64) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for i := int64(0); i < count; i++ {
		n, err := bw.Write(g.next())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	if err := bw.Flush(); err != nil {
		return total, err
	}
	return total, nil
}

// next produces one wire-format record, favoring Add when there are
// few live orders to keep the book populated, and otherwise choosing
// uniformly among the four operation kinds.
func (g *Generator) next() []byte {
	g.nextTs += uint64(g.rng.Intn(50) + 1)
	ts := g.nextTs

	if len(g.live) < 8 || g.rng.Intn(4) == 0 {
		return g.genAdd(ts)
	}

	idx := g.rng.Intn(len(g.live))
	switch g.rng.Intn(3) {
	case 0:
		return g.genModify(ts, idx)
	case 1:
		return g.genExecute(ts, idx)
	default:
		return g.genDelete(ts, idx)
	}
}

func (g *Generator) genAdd(ts uint64) []byte {
	sym := g.symbols[g.rng.Intn(len(g.symbols))]
	side := feed.Buy
	if g.rng.Intn(2) == 1 {
		side = feed.Sell
	}
	base := int64(100_000_000_000)
	price := base + int64(g.rng.Intn(2000)-1000)*1_000_000
	qty := uint32(g.rng.Intn(500) + 1)

	id := g.nextID
	g.nextID++
	g.live = append(g.live, liveOrder{id: id, symbol: sym, side: side, price: price, qty: qty})

	return feed.EncodeAdd(feed.AddOrder{TsUs: ts, OrderID: id, Symbol: sym, Side: side, PxNano: price, Qty: qty})
}

func (g *Generator) genModify(ts uint64, idx int) []byte {
	o := &g.live[idx]
	o.price += int64(g.rng.Intn(200)-100) * 1_000_000
	o.qty = uint32(g.rng.Intn(500) + 1)
	return feed.EncodeModify(feed.ModifyOrder{TsUs: ts, OrderID: o.id, NewPxNano: o.price, NewQty: o.qty})
}

func (g *Generator) genExecute(ts uint64, idx int) []byte {
	o := &g.live[idx]
	execQty := uint32(g.rng.Intn(int(o.qty)) + 1)
	rec := feed.EncodeExecute(feed.ExecuteOrder{TsUs: ts, OrderID: o.id, ExecQty: execQty})

	o.qty -= execQty
	if o.qty == 0 {
		g.removeLive(idx)
	}
	return rec
}

func (g *Generator) genDelete(ts uint64, idx int) []byte {
	o := g.live[idx]
	rec := feed.EncodeDelete(feed.DeleteOrder{TsUs: ts, OrderID: o.id})
	g.removeLive(idx)
	return rec
}

func (g *Generator) removeLive(idx int) {
	last := len(g.live) - 1
	g.live[idx] = g.live[last]
	g.live = g.live[:last]
}
