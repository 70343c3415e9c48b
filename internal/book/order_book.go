// Package book implements a single-symbol limit order book: a pair of
// price ladders (bids descending, asks ascending) backed by red-black
// trees of price levels, plus an order_id -> order index for O(1)
// per-order lookup. A book is accessed by exactly one goroutine; it
// holds no locks and performs no I/O.
package book

import "marketfeed/internal/feed"

// TopOfBook is a point-in-time snapshot of the best price and resting
// quantity on each side. A zero BidSz/AskSz means that side is empty.
type TopOfBook struct {
	BestBidPx int64
	BidSz     uint32
	BestAskPx int64
	AskSz     uint32
}

// HasBid reports whether the snapshot has a resting bid.
func (t TopOfBook) HasBid() bool { return t.BidSz > 0 }

// HasAsk reports whether the snapshot has a resting ask.
func (t TopOfBook) HasAsk() bool { return t.AskSz > 0 }

// OrderBook is the limit order book for a single symbol.
type OrderBook struct {
	bids *rbTree
	asks *rbTree

	orders map[uint64]*order

	bestBid *PriceLevel // highest live bid level, or nil
	bestAsk *PriceLevel // lowest live ask level, or nil
}

// NewOrderBook returns an empty book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids:   newRBTree(),
		asks:   newRBTree(),
		orders: make(map[uint64]*order),
	}
}

// OrderCount returns the number of live orders in the book.
func (b *OrderBook) OrderCount() int { return len(b.orders) }

// Empty reports whether the book holds no live orders.
func (b *OrderBook) Empty() bool { return len(b.orders) == 0 }

// TopOfBook returns the current best bid/ask snapshot. O(1).
func (b *OrderBook) TopOfBook() TopOfBook {
	var tob TopOfBook
	if b.bestBid != nil {
		tob.BestBidPx = b.bestBid.Price
		tob.BidSz = uint32(b.bestBid.TotalQty)
	}
	if b.bestAsk != nil {
		tob.BestAskPx = b.bestAsk.Price
		tob.AskSz = uint32(b.bestAsk.TotalQty)
	}
	return tob
}

// Lookup returns the current (side, price, quantity) of a live order,
// or false if no such order exists (never existed, or already
// deleted/executed to zero).
func (b *OrderBook) Lookup(orderID uint64) (OrderInfo, bool) {
	o, exists := b.orders[orderID]
	if !exists {
		return OrderInfo{}, false
	}
	return OrderInfo{Side: o.side, Price: o.price, Qty: o.qty}, true
}

// OnAdd inserts a new order. It rejects a duplicate order_id (I1) or
// an order that would cross the book (I4). It never mutates state on
// rejection.
func (b *OrderBook) OnAdd(orderID uint64, side feed.Side, price int64, qty uint32) bool {
	if qty == 0 {
		return false
	}
	if _, exists := b.orders[orderID]; exists {
		return false
	}
	if b.crosses(side, price) {
		return false
	}

	o := &order{id: orderID, side: side, price: price, qty: qty}
	b.orders[orderID] = o

	lvl := b.levelTree(side).GetOrCreate(price)
	lvl.enqueue(o)
	b.noteLevelLive(side, lvl)
	return true
}

// OnModify changes an existing order's price and quantity. It rejects
// a missing order, a zero new quantity, or a move that would cross
// the book — the crossing check is evaluated against the book as it
// stands before this order's own level is touched (see the Open
// Question in the order book's design notes): a Modify cannot use its
// own about-to-be-vacated liquidity to justify a cross.
func (b *OrderBook) OnModify(orderID uint64, newPrice int64, newQty uint32) bool {
	o, exists := b.orders[orderID]
	if !exists || newQty == 0 {
		return false
	}
	if b.crosses(o.side, newPrice) {
		return false
	}

	oldLevel := o.level
	oldLevel.removeFull(o)
	b.reapIfEmpty(o.side, oldLevel)

	o.price = newPrice
	o.qty = newQty

	newLevel := b.levelTree(o.side).GetOrCreate(newPrice)
	newLevel.enqueue(o)
	b.noteLevelLive(o.side, newLevel)
	return true
}

// OnExecute partially or fully fills an existing order. It rejects a
// missing order or an execution quantity exceeding the order's
// remaining quantity. A fill that exhausts the order's quantity
// erases the order entirely.
func (b *OrderBook) OnExecute(orderID uint64, execQty uint32) bool {
	o, exists := b.orders[orderID]
	if !exists || execQty > o.qty {
		return false
	}

	lvl := o.level
	lvl.TotalQty -= uint64(execQty)
	o.qty -= execQty

	if o.qty == 0 {
		lvl.listUnlink(o)
		delete(b.orders, orderID)
		b.reapIfEmpty(o.side, lvl)
	}
	return true
}

// OnDelete removes an existing order. It rejects a missing order.
func (b *OrderBook) OnDelete(orderID uint64) bool {
	o, exists := b.orders[orderID]
	if !exists {
		return false
	}

	lvl := o.level
	lvl.removeFull(o)
	delete(b.orders, orderID)
	b.reapIfEmpty(o.side, lvl)
	return true
}

/* ---------------- internal helpers ---------------- */

// crosses reports whether an order resting at price on side would
// violate I4 against the book's current best opposite quote.
func (b *OrderBook) crosses(side feed.Side, price int64) bool {
	if side == feed.Buy {
		return b.bestAsk != nil && price >= b.bestAsk.Price
	}
	return b.bestBid != nil && price <= b.bestBid.Price
}

func (b *OrderBook) levelTree(side feed.Side) *rbTree {
	if side == feed.Buy {
		return b.bids
	}
	return b.asks
}

// noteLevelLive updates the cached best-price pointer after lvl
// gained its first order or simply to keep the cache correct; cheap
// since it's only a comparison.
func (b *OrderBook) noteLevelLive(side feed.Side, lvl *PriceLevel) {
	if side == feed.Buy {
		if b.bestBid == nil || lvl.Price > b.bestBid.Price {
			b.bestBid = lvl
		}
		return
	}
	if b.bestAsk == nil || lvl.Price < b.bestAsk.Price {
		b.bestAsk = lvl
	}
}

// reapIfEmpty removes lvl from its tree once its aggregate quantity
// reaches zero (I3) and refreshes the cached best pointer if lvl was
// the best level on that side.
func (b *OrderBook) reapIfEmpty(side feed.Side, lvl *PriceLevel) {
	if lvl.TotalQty != 0 {
		return
	}
	tree := b.levelTree(side)
	tree.Delete(lvl.Price)

	if side == feed.Buy && b.bestBid == lvl {
		b.bestBid = tree.Max()
	} else if side == feed.Sell && b.bestAsk == lvl {
		b.bestAsk = tree.Min()
	}
}
