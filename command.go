package match

import (
	"fmt"

	"github.com/0x5487/lob/protocol"
)

// EncodeEvent wraps ev in a protocol.Command for symbol.
func EncodeEvent(s protocol.Serializer, symbol string, seqID uint64, ev OrderEvent) (*protocol.Command, error) {
	var payload any

	switch e := ev.(type) {
	case MarketEvent:
		payload = &protocol.MarketOrderCommand{OrderID: e.ID, Side: e.Side, Size: e.Size}
	case LimitEvent:
		payload = &protocol.LimitOrderCommand{OrderID: e.ID, Side: e.Side, Price: e.Price, Size: e.Size}
	case CancelEvent:
		payload = &protocol.CancelOrderCommand{OrderID: e.ID}
	case ReplaceEvent:
		payload = &protocol.ReplaceOrderCommand{OrderID: e.ID, Side: e.Side, Price: e.Price, Size: e.Size}
	default:
		return nil, fmt.Errorf("encode %T: %w", ev, ErrInvalidParam)
	}

	return protocol.NewCommand(s, symbol, seqID, ev.commandType(), payload)
}

// DecodeEvent turns a protocol.Command back into an OrderEvent.
func DecodeEvent(s protocol.Serializer, cmd *protocol.Command) (OrderEvent, error) {
	if cmd == nil {
		return nil, ErrInvalidParam
	}

	switch cmd.Type {
	case protocol.CmdMarketOrder:
		payload := &protocol.MarketOrderCommand{}
		if err := s.Unmarshal(cmd.Payload, payload); err != nil {
			return nil, fmt.Errorf("decode %s: %v: %w", cmd.Type, err, ErrInvalidParam)
		}
		return MarketEvent{ID: payload.OrderID, Side: payload.Side, Size: payload.Size}, nil
	case protocol.CmdLimitOrder:
		payload := &protocol.LimitOrderCommand{}
		if err := s.Unmarshal(cmd.Payload, payload); err != nil {
			return nil, fmt.Errorf("decode %s: %v: %w", cmd.Type, err, ErrInvalidParam)
		}
		return LimitEvent{ID: payload.OrderID, Side: payload.Side, Price: payload.Price, Size: payload.Size}, nil
	case protocol.CmdCancelOrder:
		payload := &protocol.CancelOrderCommand{}
		if err := s.Unmarshal(cmd.Payload, payload); err != nil {
			return nil, fmt.Errorf("decode %s: %v: %w", cmd.Type, err, ErrInvalidParam)
		}
		return CancelEvent{ID: payload.OrderID}, nil
	case protocol.CmdReplaceOrder:
		payload := &protocol.ReplaceOrderCommand{}
		if err := s.Unmarshal(cmd.Payload, payload); err != nil {
			return nil, fmt.Errorf("decode %s: %v: %w", cmd.Type, err, ErrInvalidParam)
		}
		return ReplaceEvent{ID: payload.OrderID, Side: payload.Side, Price: payload.Price, Size: payload.Size}, nil
	default:
		return nil, fmt.Errorf("command type %d: %w", cmd.Type, ErrInvalidParam)
	}
}
