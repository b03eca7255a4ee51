package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/0x5487/lob/protocol"
	"github.com/stretchr/testify/suite"
)

type SequencerTestSuite struct {
	suite.Suite
	publishLog *MemoryPublishLog
	book       *OrderBook
	sequencer  *Sequencer
}

func TestSequencerTestSuite(t *testing.T) {
	suite.Run(t, new(SequencerTestSuite))
}

func (suite *SequencerTestSuite) SetupTest() {
	suite.publishLog = NewMemoryPublishLog()
	suite.book = NewOrderBook(NewInstrument("AUDUSD"), WithPublishLog(suite.publishLog))
	suite.sequencer = NewSequencer(suite.book, WithRingSize(64))
	suite.sequencer.Start()
}

func (suite *SequencerTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	suite.NoError(suite.sequencer.Shutdown(ctx))
}

func (suite *SequencerTestSuite) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	suite.Require().NoError(suite.sequencer.Shutdown(ctx))
}

func (suite *SequencerTestSuite) TestSubmitEvents() {
	suite.Require().NoError(suite.sequencer.SubmitEvent(1, ask(1, 101, 100)))
	suite.Require().NoError(suite.sequencer.SubmitEvent(2, bid(2, 101, 40)))
	suite.Require().NoError(suite.sequencer.SubmitEvent(3, CancelEvent{ID: 1}))
	suite.shutdown()

	suite.Equal(uint64(3), suite.sequencer.LastCmdSeqID())

	matches := suite.publishLog.OfType(LogTypeMatch)
	suite.Require().Len(matches, 1)
	suite.Equal(uint64(2), matches[0].OrderID)
	suite.Equal(uint64(1), matches[0].MakerOrderID)

	cancels := suite.publishLog.OfType(LogTypeCancel)
	suite.Require().Len(cancels, 1)
	suite.Equal("60", cancels[0].Size.String())

	suite.Equal(BookStats{AskDepthCount: 1, AskEntryCount: 1}, suite.sequencer.Book().Stats())
}

func (suite *SequencerTestSuite) TestRejectedCommands() {
	suite.Require().NoError(suite.sequencer.SubmitEvent(1, ReplaceEvent{ID: 1, Side: Buy, Price: 1, Size: 1}))
	suite.Require().NoError(suite.sequencer.Submit(&protocol.Command{
		Symbol:  "AUDUSD",
		SeqID:   2,
		Type:    protocol.CmdLimitOrder,
		Payload: []byte("not json"),
	}))
	suite.shutdown()

	rejects := suite.publishLog.OfType(LogTypeReject)
	suite.Require().Len(rejects, 2)
	suite.Equal(protocol.RejectReasonUnsupported, rejects[0].RejectReason)
	suite.Equal(protocol.RejectReasonInvalidPayload, rejects[1].RejectReason)
	suite.Equal(uint64(2), suite.sequencer.LastCmdSeqID())
}

func (suite *SequencerTestSuite) TestSubmitValidation() {
	suite.ErrorIs(suite.sequencer.Submit(nil), ErrInvalidParam)
	suite.ErrorIs(suite.sequencer.Submit(&protocol.Command{Symbol: "EURUSD", Type: protocol.CmdCancelOrder}), ErrInvalidParam)

	suite.shutdown()
	suite.ErrorIs(suite.sequencer.SubmitEvent(1, CancelEvent{ID: 1}), ErrShutdown)
}

func (suite *SequencerTestSuite) TestConcurrentProducers() {
	const producers = 4
	const perProducer = 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				id := uint64(p*perProducer + i + 1)
				side := Buy
				if p%2 == 1 {
					side = Sell
				}
				suite.NoError(suite.sequencer.SubmitEvent(0, LimitEvent{ID: id, Side: side, Price: 100, Size: 1}))
			}
		}(p)
	}
	wg.Wait()
	suite.shutdown()

	// each order either rests or fully fills one resting order
	opens := suite.publishLog.OfType(LogTypeOpen)
	matches := suite.publishLog.OfType(LogTypeMatch)
	suite.Equal(producers*perProducer, len(opens)+len(matches))

	stats := suite.book.Stats()
	suite.Equal(int64(len(opens)-len(matches)), stats.AskOrderCount+stats.BidOrderCount)
	suite.Equal(uint64(0), suite.sequencer.LastCmdSeqID())
}
