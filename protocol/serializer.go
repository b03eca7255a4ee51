package protocol

import "encoding/json"

// Serializer defines the contract for serializing and deserializing command payloads.
// This allows different teams to choose their preferred format (JSON, Protobuf, SBE, etc.)
// while interacting with the order book.
type Serializer interface {
	// Marshal serializes a Go struct (e.g. LimitOrderCommand) into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes bytes into a Go struct.
	// v must be a pointer to the target struct.
	Unmarshal(data []byte, v any) error
}

// DefaultJSONSerializer encodes payloads with encoding/json.
type DefaultJSONSerializer struct{}

func (DefaultJSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (DefaultJSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// NewCommand serializes payload and wraps it in a Command of the given type.
func NewCommand(s Serializer, symbol string, seqID uint64, typ CommandType, payload any) (*Command, error) {
	data, err := s.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Command{
		Symbol:  symbol,
		SeqID:   seqID,
		Type:    typ,
		Payload: data,
	}, nil
}
