package match

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/0x5487/lob/protocol"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

const defaultPoolCapacity = 1024

// OrderBookOption configures an OrderBook.
type OrderBookOption func(*OrderBook)

// WithInitialCapacity preallocates room for n resting orders.
func WithInitialCapacity(n int32) OrderBookOption {
	return func(book *OrderBook) {
		book.initialCapacity = n
	}
}

// WithMaxOrders bounds the number of resting orders. A limit order whose remainder
// would need a slot beyond the bound is rejected with ErrCapacityExceeded.
func WithMaxOrders(n int32) OrderBookOption {
	return func(book *OrderBook) {
		book.maxOrders = n
	}
}

// WithFillIDGenerator makes the book draw fill ids from gen, e.g. to share one
// sequence between books.
func WithFillIDGenerator(gen *IDGenerator) OrderBookOption {
	return func(book *OrderBook) {
		book.fillIDs = gen
	}
}

// WithPublishLog sets the sink for order book logs.
func WithPublishLog(publishLog PublishLog) OrderBookOption {
	return func(book *OrderBook) {
		book.publishLog = publishLog
	}
}

// WithTickSize sets the decimal value of one price tick used in order book logs.
func WithTickSize(size decimal.Decimal) OrderBookOption {
	return func(book *OrderBook) {
		book.scale.tickSize = size
	}
}

// WithLotSize sets the decimal value of one size lot used in order book logs.
func WithLotSize(size decimal.Decimal) OrderBookOption {
	return func(book *OrderBook) {
		book.scale.lotSize = size
	}
}

// OrderBook matches market and limit orders for one instrument with price-time priority.
//
// An OrderBook is not safe for concurrent use: every call must come from one goroutine
// at a time. Use a Sequencer (or an external mutex) to drive it from several producers.
type OrderBook struct {
	id              string
	instrument      Instrument
	seqID           atomic.Uint64 // BookLog sequence
	fillIDs         *IDGenerator
	pool            *orderPool
	bidQueue        *queue
	askQueue        *queue
	publishLog      PublishLog
	scale           scale
	initialCapacity int32
	maxOrders       int32
}

// NewOrderBook creates an empty order book for instrument.
func NewOrderBook(instrument Instrument, opts ...OrderBookOption) *OrderBook {
	book := &OrderBook{
		id:              xid.New().String(),
		instrument:      instrument,
		bidQueue:        NewBuyerQueue(),
		askQueue:        NewSellerQueue(),
		publishLog:      NewDiscardPublishLog(),
		scale:           scale{tickSize: decimal.NewFromInt(1), lotSize: decimal.NewFromInt(1)},
		initialCapacity: defaultPoolCapacity,
	}

	for _, opt := range opts {
		opt(book)
	}

	if book.fillIDs == nil {
		book.fillIDs = NewIDGenerator()
	}
	if book.maxOrders > 0 && book.initialCapacity > book.maxOrders {
		book.initialCapacity = book.maxOrders
	}

	book.pool = newOrderPool(book.initialCapacity, book.maxOrders, func(oldCap, newCap int32) {
		logger.Debug("order pool grown", "book_id", book.id, "symbol", book.instrument.Symbol, "old_cap", oldCap, "new_cap", newCap)
	})

	return book
}

// ID returns the unique id of this book instance.
func (book *OrderBook) ID() string {
	return book.id
}

// Instrument returns the instrument this book trades.
func (book *OrderBook) Instrument() Instrument {
	return book.instrument
}

// SequenceID returns the sequence id of the last published order book log.
func (book *OrderBook) SequenceID() uint64 {
	return book.seqID.Load()
}

// Event processes exactly one event and returns the fills it produced, in the order
// they were generated. A returned error means the event was rejected and the book
// is unchanged.
//
// Cancelling an unknown order is not an error; use CancelOrder to learn whether the
// order was found.
func (book *OrderBook) Event(ev OrderEvent) ([]Fill, error) {
	switch e := ev.(type) {
	case MarketEvent:
		return book.handleMarketOrder(e)
	case LimitEvent:
		return book.handleLimitOrder(e)
	case CancelEvent:
		book.CancelOrder(e.ID)
		return nil, nil
	case ReplaceEvent:
		book.reject(e.Side, e.ID, protocol.RejectReasonUnsupported)
		return nil, fmt.Errorf("replace order %d: %w", e.ID, ErrUnsupportedOperation)
	case nil:
		return nil, ErrInvalidParam
	default:
		return nil, fmt.Errorf("event %T: %w", ev, ErrUnsupportedOperation)
	}
}

// Cancel cancels a resting order. It succeeds whether or not the order was found.
func (book *OrderBook) Cancel(id uint64) error {
	book.CancelOrder(id)
	return nil
}

// CancelOrder cancels a resting order and reports whether it was found.
// The order's queue entry is left in place and skipped by the next sweep of its level.
func (book *OrderBook) CancelOrder(id uint64) bool {
	now := time.Now().UTC()

	ord, found := book.pool.cancel(id)
	if !found {
		book.publish(book.newRejectLog(0, id, protocol.RejectReasonOrderNotFound, now))
		return false
	}

	book.sideQueue(ord.Side).orderClosed()
	book.publish(book.newCancelLog(ord, now))
	return true
}

// handleMarketOrder sweeps the opposite side until the order is filled or the side is empty.
// The unfilled remainder is discarded.
func (book *OrderBook) handleMarketOrder(e MarketEvent) ([]Fill, error) {
	if !e.Side.Valid() || e.Size == 0 {
		book.reject(e.Side, e.ID, protocol.RejectReasonInvalidPayload)
		return nil, fmt.Errorf("market order %d: %w", e.ID, ErrInvalidParam)
	}
	if book.pool.contains(e.ID) {
		book.reject(e.Side, e.ID, protocol.RejectReasonDuplicateID)
		return nil, fmt.Errorf("market order %d: %w", e.ID, ErrDuplicateID)
	}

	fills, remaining := book.sweep(e.ID, e.Side, e.Size, 0, false)

	now := time.Now().UTC()
	logs := make([]*OrderBookLog, 0, len(fills)+1)
	for _, fill := range fills {
		logs = append(logs, book.newMatchLog(e.Side, Market, fill, now))
	}

	if remaining > 0 {
		logger.Info("not enough liquidity to fill market order",
			"book_id", book.id,
			"symbol", book.instrument.Symbol,
			"order_id", e.ID,
			"remaining", remaining,
		)
		log := book.newRejectLog(e.Side, e.ID, protocol.RejectReasonNoLiquidity, now)
		log.Size = book.scale.size(remaining)
		log.OrderType = Market
		logs = append(logs, log)
	}

	book.publish(logs...)
	return fills, nil
}

// handleLimitOrder sweeps the opposite side while prices cross and rests the remainder.
func (book *OrderBook) handleLimitOrder(e LimitEvent) ([]Fill, error) {
	if !e.Side.Valid() || e.Size == 0 || e.Price == 0 {
		book.reject(e.Side, e.ID, protocol.RejectReasonInvalidPayload)
		return nil, fmt.Errorf("limit order %d: %w", e.ID, ErrInvalidParam)
	}
	if book.pool.contains(e.ID) {
		book.reject(e.Side, e.ID, protocol.RejectReasonDuplicateID)
		return nil, fmt.Errorf("limit order %d: %w", e.ID, ErrDuplicateID)
	}
	// Sweeping only frees slots, so if there is room now the remainder will fit.
	// Without room the order is only accepted when it cannot leave a remainder.
	if !book.pool.hasRoom() && book.crossingSize(e.Side, e.Price, e.Size) < e.Size {
		book.reject(e.Side, e.ID, protocol.RejectReasonCapacityExceeded)
		return nil, fmt.Errorf("limit order %d: %w", e.ID, ErrCapacityExceeded)
	}

	fills, remaining := book.sweep(e.ID, e.Side, e.Size, e.Price, true)

	now := time.Now().UTC()
	logs := make([]*OrderBookLog, 0, len(fills)+1)
	for _, fill := range fills {
		logs = append(logs, book.newMatchLog(e.Side, Limit, fill, now))
	}

	if remaining > 0 {
		h, err := book.pool.insert(e.ID, e.Side, e.Price, remaining)
		if err != nil {
			panic(fmt.Errorf("%w: resting order %d after sweep: %v", ErrInvariantViolation, e.ID, err))
		}
		book.sideQueue(e.Side).appendHandle(e.Price, h)
		logs = append(logs, book.newOpenLog(book.pool.get(h), now))
	}

	book.publish(logs...)
	return fills, nil
}

// sweep matches size against the opposite side level by level, best price first.
// When bounded, only levels that cross limitPrice are consumed.
// It returns the fills and the size left unmatched.
func (book *OrderBook) sweep(aggressorID uint64, side Side, size uint64, limitPrice uint64, bounded bool) ([]Fill, uint64) {
	targetQueue := book.oppositeQueue(side)

	var fills []Fill
	remaining := size

	for remaining > 0 {
		level := targetQueue.bestLevel()
		if level == nil {
			break
		}
		if bounded && !crosses(side, limitPrice, level.price) {
			break
		}

		var traded uint64
		fills, traded = book.matchLevel(targetQueue, level, aggressorID, remaining, fills)
		remaining -= traded

		if level.isEmpty() {
			targetQueue.removeLevel(level)
		} else if remaining > 0 {
			panic(fmt.Errorf("%w: %s level %d kept %d entries with %d left to match",
				ErrInvariantViolation, targetQueue.side, level.price, len(level.handles), remaining))
		}
	}

	return fills, remaining
}

// matchLevel runs one price level against demand. Entries are scanned from the head;
// cancelled entries and fully filled entries advance the drain boundary, a partially
// filled entry stays at the head. Everything up to the boundary is drained afterwards.
func (book *OrderBook) matchLevel(q *queue, level *priceLevel, aggressorID uint64, demand uint64, fills []Fill) ([]Fill, uint64) {
	var traded uint64
	boundary := -1

	for i, h := range level.handles {
		if demand == 0 {
			break
		}

		ord := book.pool.get(h)
		if ord == nil || ord.Size == 0 {
			boundary = i
			continue
		}

		available := ord.Size
		qty := min(demand, available)

		ord.fill(qty)
		demand -= qty
		traded += qty

		fills = append(fills, Fill{
			ID:          book.fillIDs.Next(),
			AggressorID: aggressorID,
			RestingID:   ord.ID,
			Price:       ord.Price,
			Size:        qty,
		})

		if qty == available {
			boundary = i
		}
	}

	if boundary >= 0 {
		for _, h := range level.handles[:boundary+1] {
			// stale handles belong to cancelled orders whose slots are already free
			if ord := book.pool.get(h); ord != nil && ord.Size == 0 {
				book.pool.release(h)
				q.orderClosed()
			}
		}
		q.drainLevel(level, boundary+1)
	}

	return fills, traded
}

// crossingSize returns the live size on the opposite side that a limit order at price
// could take, capped at size.
func (book *OrderBook) crossingSize(side Side, price uint64, size uint64) uint64 {
	var total uint64
	book.oppositeQueue(side).each(func(level *priceLevel) bool {
		if !crosses(side, price, level.price) {
			return false
		}
		live, _ := book.liveSize(level)
		total += live
		return total < size
	})
	return min(total, size)
}

// crosses reports whether an order on side with limit price can trade at levelPrice.
func crosses(side Side, price uint64, levelPrice uint64) bool {
	if side == Buy {
		return levelPrice <= price
	}
	return levelPrice >= price
}

// liveSize sums the remaining size and count of the live orders queued at level.
func (book *OrderBook) liveSize(level *priceLevel) (uint64, int64) {
	var size uint64
	var count int64
	for _, h := range level.handles {
		if ord := book.pool.get(h); ord != nil && ord.Size > 0 {
			size += ord.Size
			count++
		}
	}
	return size, count
}

func (book *OrderBook) sideQueue(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

func (book *OrderBook) oppositeQueue(side Side) *queue {
	if side == Buy {
		return book.askQueue
	}
	return book.bidQueue
}

func (book *OrderBook) reject(side Side, orderID uint64, reason RejectReason) {
	logger.Debug("order rejected",
		"book_id", book.id,
		"symbol", book.instrument.Symbol,
		"order_id", orderID,
		"reason", reason,
	)
	book.publish(book.newRejectLog(side, orderID, reason, time.Now().UTC()))
}

func (book *OrderBook) publish(logs ...*OrderBookLog) {
	if len(logs) == 0 {
		return
	}
	book.publishLog.Publish(logs...)
	for _, log := range logs {
		releaseBookLog(log)
	}
}

// BestBid returns the highest bid price that still has live size.
func (book *OrderBook) BestBid() (uint64, bool) {
	return book.bestLivePrice(book.bidQueue)
}

// BestAsk returns the lowest ask price that still has live size.
func (book *OrderBook) BestAsk() (uint64, bool) {
	return book.bestLivePrice(book.askQueue)
}

func (book *OrderBook) bestLivePrice(q *queue) (uint64, bool) {
	var price uint64
	found := false
	q.each(func(level *priceLevel) bool {
		if live, _ := book.liveSize(level); live > 0 {
			price = level.price
			found = true
			return false
		}
		return true
	})
	return price, found
}

// Order returns a copy of a resting order.
func (book *OrderBook) Order(id uint64) (Order, bool) {
	ord, ok := book.pool.lookup(id)
	if !ok {
		return Order{}, false
	}
	return *ord, true
}

// Depth returns up to limit price levels per side, best price first.
// Only live orders are counted; a level holding nothing but cancelled entries is skipped.
func (book *OrderBook) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}
	return &Depth{
		UpdateID: book.seqID.Load(),
		Asks:     book.depth(book.askQueue, limit),
		Bids:     book.depth(book.bidQueue, limit),
	}, nil
}

func (book *OrderBook) depth(q *queue, limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, limit)
	q.each(func(level *priceLevel) bool {
		size, count := book.liveSize(level)
		if size > 0 {
			result = append(result, &DepthItem{Price: level.price, Size: size, Count: count})
		}
		return uint32(len(result)) < limit
	})
	return result
}

// DepthResponse is Depth with prices and sizes scaled by the tick and lot sizes.
func (book *OrderBook) DepthResponse(limit uint32) (*protocol.GetDepthResponse, error) {
	depth, err := book.Depth(limit)
	if err != nil {
		return nil, err
	}

	convert := func(items []*DepthItem) []*protocol.DepthItem {
		out := make([]*protocol.DepthItem, 0, len(items))
		for _, item := range items {
			out = append(out, &protocol.DepthItem{
				Price: book.scale.price(item.Price).String(),
				Size:  book.scale.size(item.Size).String(),
				Count: item.Count,
			})
		}
		return out
	}

	return &protocol.GetDepthResponse{
		UpdateID: depth.UpdateID,
		Asks:     convert(depth.Asks),
		Bids:     convert(depth.Bids),
	}, nil
}

// Stats returns usage statistics for the order book.
func (book *OrderBook) Stats() BookStats {
	return BookStats{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		AskEntryCount: book.askQueue.entryCount(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
		BidEntryCount: book.bidQueue.entryCount(),
	}
}
