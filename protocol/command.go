package protocol

// CommandType defines the type of the command (using uint8 for memory alignment and performance)
type CommandType uint8

// Trading commands start at 51, leaving the low range for management commands.
const (
	CmdUnknown      CommandType = 0
	CmdMarketOrder  CommandType = 51
	CmdLimitOrder   CommandType = 52
	CmdCancelOrder  CommandType = 53
	CmdReplaceOrder CommandType = 54
)

// String returns the name of the command type.
func (t CommandType) String() string {
	switch t {
	case CmdMarketOrder:
		return "market_order"
	case CmdLimitOrder:
		return "limit_order"
	case CmdCancelOrder:
		return "cancel_order"
	case CmdReplaceOrder:
		return "replace_order"
	default:
		return "unknown"
	}
}

// Command is the standard carrier for events entering an order book.
// It is designed to be efficient for serialization and compatible with Event Sourcing.
type Command struct {
	// Version is the protocol version for backward compatibility.
	Version uint8 `json:"version"`

	// Symbol is the instrument this command targets.
	Symbol string `json:"symbol"`

	// SeqID is used for global ordering and deduplication.
	SeqID uint64 `json:"seq_id"`

	// Type identifies the payload type for fast routing.
	Type CommandType `json:"type"`

	// Payload contains the serialized business data (e.g., JSON bytes of LimitOrderCommand).
	// We use lazy deserialization to optimize routing performance.
	Payload []byte `json:"payload"`

	// Metadata stores non-business context (e.g., Tracing ID, Source IP).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MarketOrderCommand is the payload for a market order.
type MarketOrderCommand struct {
	OrderID uint64 `json:"order_id"`
	Side    Side   `json:"side"`
	Size    uint64 `json:"size"`
}

// LimitOrderCommand is the payload for a limit order.
// Price is expressed in ticks and Size in lots.
type LimitOrderCommand struct {
	OrderID uint64 `json:"order_id"`
	Side    Side   `json:"side"`
	Price   uint64 `json:"price"`
	Size    uint64 `json:"size"`
}

// CancelOrderCommand is the payload for cancelling a resting order.
type CancelOrderCommand struct {
	OrderID uint64 `json:"order_id"`
}

// ReplaceOrderCommand is the payload for replacing a resting order.
// Order books reject it as unsupported.
type ReplaceOrderCommand struct {
	OrderID uint64 `json:"order_id"`
	Side    Side   `json:"side"`
	Price   uint64 `json:"price"`
	Size    uint64 `json:"size"`
}
