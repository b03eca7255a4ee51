package match

import (
	"testing"

	"pgregory.net/rapid"
)

// bookModel is a naive order book: each side is a slice kept in priority order.
type bookModel struct {
	bids    []*Order
	asks    []*Order
	fillIDs uint64
}

func (m *bookModel) side(side Side) *[]*Order {
	if side == Buy {
		return &m.bids
	}
	return &m.asks
}

func (m *bookModel) match(id uint64, side Side, price uint64, size uint64, bounded bool) ([]Fill, uint64) {
	resting := m.side(side.Opposite())

	var fills []Fill
	for size > 0 && len(*resting) > 0 {
		head := (*resting)[0]
		if bounded && !crosses(side, price, head.Price) {
			break
		}

		qty := min(size, head.Size)
		head.Size -= qty
		size -= qty
		m.fillIDs++
		fills = append(fills, Fill{ID: m.fillIDs, AggressorID: id, RestingID: head.ID, Price: head.Price, Size: qty})

		if head.Size == 0 {
			*resting = (*resting)[1:]
		}
	}
	return fills, size
}

func (m *bookModel) rest(ord *Order) {
	orders := m.side(ord.Side)

	// after every order at an equal or better price
	pos := len(*orders)
	for i, o := range *orders {
		better := o.Price > ord.Price
		if ord.Side == Sell {
			better = o.Price < ord.Price
		}
		if !better && o.Price != ord.Price {
			pos = i
			break
		}
	}

	*orders = append(*orders, nil)
	copy((*orders)[pos+1:], (*orders)[pos:])
	(*orders)[pos] = ord
}

func (m *bookModel) cancel(id uint64) bool {
	for _, orders := range []*[]*Order{&m.bids, &m.asks} {
		for i, o := range *orders {
			if o.ID == id {
				*orders = append((*orders)[:i], (*orders)[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (m *bookModel) depth(side Side) []*DepthItem {
	var items []*DepthItem
	for _, o := range *m.side(side) {
		if n := len(items); n > 0 && items[n-1].Price == o.Price {
			items[n-1].Size += o.Size
			items[n-1].Count++
			continue
		}
		items = append(items, &DepthItem{Price: o.Price, Size: o.Size, Count: 1})
	}
	if items == nil {
		items = []*DepthItem{}
	}
	return items
}

func TestProperty_OrderBookMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		book := NewOrderBook(NewInstrument("AUDUSD"))
		model := &bookModel{}

		original := map[uint64]uint64{}
		traded := map[uint64]uint64{}
		cancelled := map[uint64]bool{}
		nextID := uint64(1)

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for step := 0; step < steps; step++ {
			var fills, expected []Fill
			var err error

			switch rapid.IntRange(0, 9).Draw(t, "kind") {
			case 0, 1, 2, 3, 4, 5:
				id := nextID
				nextID++
				side := rapid.SampledFrom([]Side{Buy, Sell}).Draw(t, "side")
				price := rapid.Uint64Range(95, 105).Draw(t, "price")
				size := rapid.Uint64Range(1, 50).Draw(t, "size")
				original[id] = size

				fills, err = book.Event(LimitEvent{ID: id, Side: side, Price: price, Size: size})
				var remaining uint64
				expected, remaining = model.match(id, side, price, size, true)
				if remaining > 0 {
					model.rest(&Order{ID: id, Side: side, Price: price, Size: remaining})
				}
			case 6, 7:
				id := nextID
				nextID++
				side := rapid.SampledFrom([]Side{Buy, Sell}).Draw(t, "side")
				size := rapid.Uint64Range(1, 80).Draw(t, "size")
				original[id] = size

				fills, err = book.Event(MarketEvent{ID: id, Side: side, Size: size})
				expected, _ = model.match(id, side, 0, size, false)

				if _, ok := book.Order(id); ok {
					t.Fatalf("market order %d is resting", id)
				}
			default:
				id := rapid.Uint64Range(1, nextID+2).Draw(t, "cancel")
				before := book.Stats()
				depthBefore, _ := book.Depth(1000)

				found := book.CancelOrder(id)
				if found != model.cancel(id) {
					t.Fatalf("cancel %d: book found=%v", id, found)
				}
				if found {
					cancelled[id] = true
				} else {
					depthAfter, _ := book.Depth(1000)
					if book.Stats() != before || !depthEqual(depthBefore.Bids, depthAfter.Bids) || !depthEqual(depthBefore.Asks, depthAfter.Asks) {
						t.Fatalf("cancel of unknown id %d changed the book", id)
					}
				}
			}

			if err != nil {
				t.Fatalf("step %d: %v", step, err)
			}
			if !fillsEqual(fills, expected) {
				t.Fatalf("step %d: fills %+v, want %+v", step, fills, expected)
			}

			for _, fill := range fills {
				if cancelled[fill.RestingID] || cancelled[fill.AggressorID] {
					t.Fatalf("fill %+v involves a cancelled order", fill)
				}
				traded[fill.RestingID] += fill.Size
				traded[fill.AggressorID] += fill.Size
				if traded[fill.RestingID] > original[fill.RestingID] {
					t.Fatalf("order %d traded %d of %d", fill.RestingID, traded[fill.RestingID], original[fill.RestingID])
				}
				if traded[fill.AggressorID] > original[fill.AggressorID] {
					t.Fatalf("order %d traded %d of %d", fill.AggressorID, traded[fill.AggressorID], original[fill.AggressorID])
				}
			}

			bestBid, hasBid := book.BestBid()
			bestAsk, hasAsk := book.BestAsk()
			if hasBid && hasAsk && bestBid >= bestAsk {
				t.Fatalf("book is crossed: best bid %d >= best ask %d", bestBid, bestAsk)
			}
			if bidLevel, askLevel := book.bidQueue.bestLevel(), book.askQueue.bestLevel(); bidLevel != nil && askLevel != nil && bidLevel.price >= askLevel.price {
				t.Fatalf("price index is crossed: %d >= %d", bidLevel.price, askLevel.price)
			}

			depth, _ := book.Depth(1000)
			if !depthEqual(depth.Bids, model.depth(Buy)) || !depthEqual(depth.Asks, model.depth(Sell)) {
				t.Fatalf("step %d: depth %+v / %+v, want %+v / %+v", step, depth.Bids, depth.Asks, model.depth(Buy), model.depth(Sell))
			}
		}
	})
}

func fillsEqual(a, b []Fill) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func depthEqual(a, b []*DepthItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if *a[i] != *b[i] {
			return false
		}
	}
	return true
}
