package book

import "marketfeed/internal/feed"

// order is a single live resting order, intrusively linked into its
// PriceLevel's FIFO queue so cancel/execute-to-zero is O(1) once the
// order and its level are known.
type order struct {
	id    uint64
	side  feed.Side
	price int64
	qty   uint32

	level      *PriceLevel
	prev, next *order
}

// OrderInfo is the externally visible, read-only view of a live order.
type OrderInfo struct {
	Side  feed.Side
	Price int64
	Qty   uint32
}
