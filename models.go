package match

import (
	"github.com/0x5487/lob/protocol"
)

// EngineVersion is the current version of the matching core.
const EngineVersion = "v1.0.0"

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrderType = protocol.OrderType

const (
	Market OrderType = protocol.OrderTypeMarket
	Limit  OrderType = protocol.OrderTypeLimit
	Cancel OrderType = protocol.OrderTypeCancel
)

type LogType = protocol.LogType

const (
	LogTypeOpen   LogType = protocol.LogTypeOpen
	LogTypeMatch  LogType = protocol.LogTypeMatch
	LogTypeCancel LogType = protocol.LogTypeCancel
	LogTypeReject LogType = protocol.LogTypeReject
)

type RejectReason = protocol.RejectReason

// Instrument identifies the single market an order book trades.
type Instrument struct {
	Symbol string
}

// NewInstrument creates an instrument for the given symbol.
func NewInstrument(symbol string) Instrument {
	return Instrument{Symbol: symbol}
}

func (i Instrument) String() string {
	return i.Symbol
}

// OrderEvent is one of MarketEvent, LimitEvent, CancelEvent or ReplaceEvent.
type OrderEvent interface {
	OrderID() uint64
	commandType() protocol.CommandType
}

// MarketEvent is a market order: it takes liquidity at any price and never rests.
type MarketEvent struct {
	ID   uint64
	Side Side
	Size uint64
}

// LimitEvent is a limit order. Price is in ticks, Size in lots.
type LimitEvent struct {
	ID    uint64
	Side  Side
	Price uint64
	Size  uint64
}

// CancelEvent cancels a resting order.
type CancelEvent struct {
	ID uint64
}

// ReplaceEvent is declared for completeness; order books reject it with ErrUnsupportedOperation.
type ReplaceEvent struct {
	ID    uint64
	Side  Side
	Price uint64
	Size  uint64
}

func (e MarketEvent) OrderID() uint64  { return e.ID }
func (e LimitEvent) OrderID() uint64   { return e.ID }
func (e CancelEvent) OrderID() uint64  { return e.ID }
func (e ReplaceEvent) OrderID() uint64 { return e.ID }

func (MarketEvent) commandType() protocol.CommandType  { return protocol.CmdMarketOrder }
func (LimitEvent) commandType() protocol.CommandType   { return protocol.CmdLimitOrder }
func (CancelEvent) commandType() protocol.CommandType  { return protocol.CmdCancelOrder }
func (ReplaceEvent) commandType() protocol.CommandType { return protocol.CmdReplaceOrder }

// Order is the state of a resting order inside the order pool.
// Size is the remaining size; it only ever decreases.
type Order struct {
	ID    uint64 `json:"id"`
	Side  Side   `json:"side"`
	Price uint64 `json:"price"`
	Size  uint64 `json:"size"`
}

func (o *Order) fill(size uint64) {
	o.Size -= size
}

// Fill is a trade between an aggressor and a resting order.
// It is a value: nothing in it points back into the book.
type Fill struct {
	ID          uint64 `json:"id"`
	AggressorID uint64 `json:"aggressor_id"`
	RestingID   uint64 `json:"resting_id"`
	Price       uint64 `json:"price"`
	Size        uint64 `json:"size"`
}

type DepthItem struct {
	Price uint64
	Size  uint64
	Count int64
}

// Depth is the live liquidity of the book, best price first on both sides.
type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// BookStats contains statistics about the order book queues.
// OrderCount counts live orders; EntryCount also includes cancelled entries
// that are still queued and waiting to be swept.
type BookStats struct {
	AskDepthCount int64
	AskOrderCount int64
	AskEntryCount int64
	BidDepthCount int64
	BidOrderCount int64
	BidEntryCount int64
}
