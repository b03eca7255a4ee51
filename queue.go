package match

import (
	"fmt"

	"github.com/0x5487/lob/structure"
	"github.com/huandu/skiplist"
)

// priceLevel is the FIFO of order handles resting at one price.
// Handles are appended at the tail and drained from the head; they are never reordered.
type priceLevel struct {
	price   uint64
	handles []structure.Handle
}

// drain removes the first n handles.
func (pl *priceLevel) drain(n int) {
	if n >= len(pl.handles) {
		pl.handles = pl.handles[:0]
		return
	}
	pl.handles = pl.handles[n:]
}

func (pl *priceLevel) isEmpty() bool {
	return len(pl.handles) == 0
}

// queue is one side of the book: price levels kept in a skiplist whose front is
// always the best price (highest bid, lowest ask).
type queue struct {
	side        Side
	liveOrders  int64
	entries     int64
	depthList   *skiplist.SkipList
	priceList   map[uint64]*skiplist.Element
	levelBuffer int
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The price levels are sorted by price in descending order (highest price first).
func NewBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList:   make(map[uint64]*skiplist.Element),
		levelBuffer: 10,
	}
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The price levels are sorted by price in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList:   make(map[uint64]*skiplist.Element),
		levelBuffer: 10,
	}
}

// bestLevel returns the level at the best price, or nil if the side is empty.
func (q *queue) bestLevel() *priceLevel {
	el := q.depthList.Front()
	if el == nil {
		if q.depthList.Len() > 0 || len(q.priceList) > 0 {
			panic(fmt.Errorf("%w: %s side reports %d levels but has no front", ErrInvariantViolation, q.side, q.depthList.Len()))
		}
		return nil
	}
	return levelOf(el)
}

func levelOf(el *skiplist.Element) *priceLevel {
	unit, ok := el.Value.(*priceLevel)
	if !ok || unit == nil {
		panic(fmt.Errorf("%w: price level element holds %T", ErrInvariantViolation, el.Value))
	}
	return unit
}

// appendHandle adds h at the tail of the level for price, creating the level if absent.
func (q *queue) appendHandle(price uint64, h structure.Handle) {
	el, ok := q.priceList[price]
	if ok {
		unit := levelOf(el)
		unit.handles = append(unit.handles, h)
	} else {
		unit := &priceLevel{
			price:   price,
			handles: make([]structure.Handle, 0, q.levelBuffer),
		}
		unit.handles = append(unit.handles, h)
		q.priceList[price] = q.depthList.Set(price, unit)
	}

	q.entries++
	q.liveOrders++
}

// removeLevel deletes an empty price level.
func (q *queue) removeLevel(level *priceLevel) {
	el, ok := q.priceList[level.price]
	if !ok {
		panic(fmt.Errorf("%w: %s level %d is not indexed", ErrInvariantViolation, q.side, level.price))
	}
	if !level.isEmpty() {
		panic(fmt.Errorf("%w: removing %s level %d with %d entries", ErrInvariantViolation, q.side, level.price, len(level.handles)))
	}

	q.depthList.RemoveElement(el)
	delete(q.priceList, level.price)
}

// level returns the level at price, or nil.
func (q *queue) level(price uint64) *priceLevel {
	el, ok := q.priceList[price]
	if !ok {
		return nil
	}
	return levelOf(el)
}

// each calls fn for each level from best to worst price until fn returns false.
func (q *queue) each(fn func(level *priceLevel) bool) {
	for el := q.depthList.Front(); el != nil; el = el.Next() {
		if !fn(levelOf(el)) {
			return
		}
	}
}

// isEmpty reports whether the side holds no level at all, live or not.
func (q *queue) isEmpty() bool {
	return q.depthList.Len() == 0
}

// orderCount returns the number of live orders in the queue.
func (q *queue) orderCount() int64 {
	return q.liveOrders
}

// entryCount returns the number of queued handles, including stale ones.
func (q *queue) entryCount() int64 {
	return q.entries
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return int64(q.depthList.Len())
}

// drainLevel removes the first n handles of level.
func (q *queue) drainLevel(level *priceLevel, n int) {
	if n > len(level.handles) {
		n = len(level.handles)
	}
	level.drain(n)
	q.entries -= int64(n)
}

// orderClosed records that a live order of this side was fully filled or cancelled.
func (q *queue) orderClosed() {
	q.liveOrders--
}
