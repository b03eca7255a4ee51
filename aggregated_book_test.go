package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatedBook_Replay(t *testing.T) {
	book, publishLog := createTestOrderBook(t)
	mustEvent(t, book, bid(1, 100, 10))
	mustEvent(t, book, bid(2, 100, 5))
	mustEvent(t, book, bid(3, 99, 7))
	mustEvent(t, book, ask(4, 102, 3))
	mustEvent(t, book, ask(5, 101, 8))
	mustEvent(t, book, MarketEvent{ID: 6, Side: Sell, Size: 12})
	require.True(t, book.CancelOrder(3))
	mustEvent(t, book, ask(7, 100, 4))
	book.CancelOrder(42)

	ab := NewAggregatedBook()
	for _, log := range publishLog.Logs() {
		require.NoError(t, ab.Replay(log))
	}
	assert.Equal(t, book.SequenceID(), ab.SequenceID())

	depth, err := book.Depth(10)
	require.NoError(t, err)

	assertLevels := func(items []*DepthItem, levels []AggregatedLevel) {
		require.Len(t, levels, len(items))
		for i, item := range items {
			assert.True(t, decimal.NewFromInt(int64(item.Price)).Equal(levels[i].Price), "price at %d", i)
			assert.True(t, decimal.NewFromInt(int64(item.Size)).Equal(levels[i].Size), "size at %d", i)
		}
	}
	assertLevels(depth.Bids, ab.Levels(Buy, 10))
	assertLevels(depth.Asks, ab.Levels(Sell, 10))

	assert.True(t, decimal.NewFromInt(3).Equal(ab.Depth(Sell, decimal.NewFromInt(102))))
	assert.True(t, ab.Depth(Buy, decimal.NewFromInt(99)).IsZero())
}

func TestAggregatedBook_Sequence(t *testing.T) {
	ab := NewAggregatedBook()

	open := &OrderBookLog{SequenceID: 1, Type: LogTypeOpen, Side: Buy, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(5)}
	require.NoError(t, ab.Replay(open))

	// duplicates are ignored
	require.NoError(t, ab.Replay(open))
	assert.True(t, decimal.NewFromInt(5).Equal(ab.Depth(Buy, decimal.NewFromInt(100))))

	gap := &OrderBookLog{SequenceID: 3, Type: LogTypeOpen, Side: Buy, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(5)}
	assert.ErrorIs(t, ab.Replay(gap), ErrSequenceGap)
	assert.Equal(t, uint64(1), ab.SequenceID())

	reject := &OrderBookLog{SequenceID: 2, Type: LogTypeReject}
	require.NoError(t, ab.Replay(reject))
	require.NoError(t, ab.Replay(gap))
	assert.True(t, decimal.NewFromInt(10).Equal(ab.Depth(Buy, decimal.NewFromInt(100))))

	ab.Reset(10)
	assert.Equal(t, uint64(10), ab.SequenceID())
	assert.Empty(t, ab.Levels(Buy, 10))
}

func TestCalculateDepthChange(t *testing.T) {
	price := decimal.NewFromInt(100)
	size := decimal.NewFromInt(5)

	change := CalculateDepthChange(&OrderBookLog{Type: LogTypeMatch, Side: Buy, Price: price, Size: size})
	assert.Equal(t, Sell, change.Side)
	assert.True(t, size.Neg().Equal(change.SizeDiff))

	change = CalculateDepthChange(&OrderBookLog{Type: LogTypeCancel, Side: Buy, Price: price, Size: size})
	assert.Equal(t, Buy, change.Side)
	assert.True(t, size.Neg().Equal(change.SizeDiff))

	change = CalculateDepthChange(&OrderBookLog{Type: LogTypeReject, Side: Buy, Price: price, Size: size})
	assert.True(t, change.SizeDiff.IsZero())
}
