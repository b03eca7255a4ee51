package match

import (
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// OrderBookLog represents an event in the order book.
// SequenceID is a per-book increasing ID for every log, used for ordering,
// deduplication, and rebuild synchronization in downstream systems.
// Use LogType to determine if the event affects order book state:
// - Open, Match, Cancel: affect order book state
// - Reject: does not affect order book state
type OrderBookLog struct {
	SequenceID   uint64          `json:"seq_id"`
	TradeID      uint64          `json:"trade_id,omitempty"` // Fill ID, only set for Match events
	Type         LogType         `json:"type"`               // Event type: open, match, cancel, reject
	BookID       string          `json:"book_id"`
	Symbol       string          `json:"symbol"`
	Side         Side            `json:"side"`
	Price        decimal.Decimal `json:"price"`
	Size         decimal.Decimal `json:"size"`
	Amount       decimal.Decimal `json:"amount,omitempty"` // Price * Size, only set for Match events
	OrderID      uint64          `json:"order_id"`
	OrderType    OrderType       `json:"order_type,omitempty"`
	MakerOrderID uint64          `json:"maker_order_id,omitempty"`
	RejectReason RejectReason    `json:"reject_reason,omitempty"` // Reason for rejection, only set for Reject events
	CreatedAt    time.Time       `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(OrderBookLog)
	},
}

func acquireBookLog() *OrderBookLog {
	return bookLogPool.Get().(*OrderBookLog)
}

func releaseBookLog(log *OrderBookLog) {
	// For decimal.Decimal, the zero value (nil internal pointer) represents 0, which is valid.
	*log = OrderBookLog{}
	bookLogPool.Put(log)
}

// scale converts integer ticks and lots into decimal prices and sizes.
type scale struct {
	tickSize decimal.Decimal
	lotSize  decimal.Decimal
}

func units(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func (s scale) price(ticks uint64) decimal.Decimal {
	return units(ticks).Mul(s.tickSize)
}

func (s scale) size(lots uint64) decimal.Decimal {
	return units(lots).Mul(s.lotSize)
}

func (book *OrderBook) newLog(typ LogType, side Side, orderID uint64, now time.Time) *OrderBookLog {
	log := acquireBookLog()
	log.SequenceID = book.seqID.Add(1)
	log.Type = typ
	log.BookID = book.id
	log.Symbol = book.instrument.Symbol
	log.Side = side
	log.OrderID = orderID
	log.CreatedAt = now
	return log
}

func (book *OrderBook) newOpenLog(ord *Order, now time.Time) *OrderBookLog {
	log := book.newLog(LogTypeOpen, ord.Side, ord.ID, now)
	log.Price = book.scale.price(ord.Price)
	log.Size = book.scale.size(ord.Size)
	log.OrderType = Limit
	return log
}

func (book *OrderBook) newMatchLog(takerSide Side, takerType OrderType, fill Fill, now time.Time) *OrderBookLog {
	log := book.newLog(LogTypeMatch, takerSide, fill.AggressorID, now)
	log.TradeID = fill.ID
	log.Price = book.scale.price(fill.Price)
	log.Size = book.scale.size(fill.Size)
	log.Amount = log.Price.Mul(log.Size)
	log.OrderType = takerType
	log.MakerOrderID = fill.RestingID
	return log
}

func (book *OrderBook) newCancelLog(ord Order, now time.Time) *OrderBookLog {
	log := book.newLog(LogTypeCancel, ord.Side, ord.ID, now)
	log.Price = book.scale.price(ord.Price)
	log.Size = book.scale.size(ord.Size)
	log.OrderType = Cancel
	return log
}

func (book *OrderBook) newRejectLog(side Side, orderID uint64, reason RejectReason, now time.Time) *OrderBookLog {
	log := book.newLog(LogTypeReject, side, orderID, now)
	log.RejectReason = reason
	return log
}
