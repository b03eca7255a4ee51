package match

import (
	"fmt"

	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of the order book,
// tracking only price levels and their aggregated sizes (depth).
// It is designed for downstream services that need to rebuild
// order book state from OrderBookLog events received from a PublishLog.
//
// AggregatedBook is not safe for concurrent use.
type AggregatedBook struct {
	seqID uint64 // Last processed SequenceID for gap detection and deduplication
	ask   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	bid   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

// AggregatedLevel is one price level of an AggregatedBook.
type AggregatedLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
func NewAggregatedBook() *AggregatedBook {
	ab := &AggregatedBook{}
	ab.Reset(0)
	return ab
}

func newDecimalTree() *treemap.TreeMap[decimal.Decimal, decimal.Decimal] {
	return treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
		return a.LessThan(b)
	})
}

// SequenceID returns the last processed sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID
}

// Reset clears both sides and sets the sequence ID replay continues from.
func (ab *AggregatedBook) Reset(seqID uint64) {
	ab.seqID = seqID
	ab.ask = newDecimalTree()
	ab.bid = newDecimalTree()
}

// Replay applies an OrderBookLog event to update the aggregated book state.
// Logs at or below the current sequence ID are ignored as duplicates.
// Reject logs do not affect book state but still advance the sequence ID.
func (ab *AggregatedBook) Replay(log *OrderBookLog) error {
	if log.SequenceID <= ab.seqID {
		return nil
	}
	if log.SequenceID != ab.seqID+1 {
		return fmt.Errorf("expected seq %d, got %d: %w", ab.seqID+1, log.SequenceID, ErrSequenceGap)
	}

	change := CalculateDepthChange(log)
	if !change.SizeDiff.IsZero() {
		tree := ab.tree(change.Side)
		current, _ := tree.Get(change.Price)
		next := current.Add(change.SizeDiff)
		if next.Sign() <= 0 {
			tree.Del(change.Price)
		} else {
			tree.Set(change.Price, next)
		}
	}

	ab.seqID = log.SequenceID
	return nil
}

// Depth returns the aggregated size at a specific price level for the given side.
// Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) decimal.Decimal {
	size, ok := ab.tree(side).Get(price)
	if !ok {
		return decimal.Zero
	}
	return size
}

// Levels returns up to limit levels of side, best price first.
func (ab *AggregatedBook) Levels(side Side, limit int) []AggregatedLevel {
	levels := make([]AggregatedLevel, 0, limit)
	if side == Buy {
		for it := ab.bid.Reverse(); it.Valid() && len(levels) < limit; it.Next() {
			levels = append(levels, AggregatedLevel{Price: it.Key(), Size: it.Value()})
		}
		return levels
	}
	for it := ab.ask.Iterator(); it.Valid() && len(levels) < limit; it.Next() {
		levels = append(levels, AggregatedLevel{Price: it.Key(), Size: it.Value()})
	}
	return levels
}

func (ab *AggregatedBook) tree(side Side) *treemap.TreeMap[decimal.Decimal, decimal.Decimal] {
	if side == Buy {
		return ab.bid
	}
	return ab.ask
}
