package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand(t *testing.T) {
	s := DefaultJSONSerializer{}

	cmd, err := NewCommand(s, "AUDUSD", 7, CmdLimitOrder, &LimitOrderCommand{
		OrderID: 1,
		Side:    SideSell,
		Price:   101,
		Size:    100,
	})
	require.NoError(t, err)

	assert.Equal(t, "AUDUSD", cmd.Symbol)
	assert.Equal(t, uint64(7), cmd.SeqID)
	assert.Equal(t, CmdLimitOrder, cmd.Type)
	assert.JSONEq(t, `{"order_id":1,"side":2,"price":101,"size":100}`, string(cmd.Payload))

	var payload LimitOrderCommand
	require.NoError(t, s.Unmarshal(cmd.Payload, &payload))
	assert.Equal(t, uint64(101), payload.Price)
	assert.Equal(t, SideSell, payload.Side)
}

func TestSide(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
	assert.True(t, SideBuy.Valid())
	assert.False(t, Side(0).Valid())
	assert.Equal(t, "buy", SideBuy.String())
	assert.Equal(t, "unknown", Side(9).String())
}

func TestCommandTypeString(t *testing.T) {
	assert.Equal(t, "market_order", CmdMarketOrder.String())
	assert.Equal(t, "replace_order", CmdReplaceOrder.String())
	assert.Equal(t, "unknown", CmdUnknown.String())
}
