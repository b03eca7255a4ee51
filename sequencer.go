package match

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/0x5487/lob/protocol"
)

const defaultRingSize = 32768

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithRingSize sets the ring buffer size. n must be a power of 2.
func WithRingSize(n int64) SequencerOption {
	return func(s *Sequencer) {
		s.ringSize = n
	}
}

// WithSerializer sets the serializer used to decode command payloads.
func WithSerializer(serializer protocol.Serializer) SequencerOption {
	return func(s *Sequencer) {
		s.serializer = serializer
	}
}

// Sequencer serializes commands from many producers onto one order book.
// Only the consumer goroutine touches the book; results leave through the book's PublishLog.
type Sequencer struct {
	book         *OrderBook
	ring         *RingBuffer[*protocol.Command]
	serializer   protocol.Serializer
	ringSize     int64
	lastCmdSeqID atomic.Uint64
	isShutdown   atomic.Bool
	started      atomic.Bool
}

// NewSequencer creates a sequencer for book. Call Start before submitting commands.
func NewSequencer(book *OrderBook, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		book:       book,
		serializer: protocol.DefaultJSONSerializer{},
		ringSize:   defaultRingSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.ring = NewRingBuffer[*protocol.Command](s.ringSize, s)
	return s
}

// Start launches the consumer goroutine. It is a no-op when already started.
func (s *Sequencer) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		s.ring.Run()
	}()
}

// Submit enqueues cmd. It is safe for concurrent use.
func (s *Sequencer) Submit(cmd *protocol.Command) error {
	if s.isShutdown.Load() {
		return ErrShutdown
	}
	if cmd == nil || cmd.Symbol != s.book.instrument.Symbol {
		return ErrInvalidParam
	}

	if !s.ring.Publish(cmd) {
		return ErrShutdown
	}
	return nil
}

// SubmitEvent encodes ev and enqueues it.
func (s *Sequencer) SubmitEvent(seqID uint64, ev OrderEvent) error {
	cmd, err := EncodeEvent(s.serializer, s.book.instrument.Symbol, seqID, ev)
	if err != nil {
		return err
	}
	return s.Submit(cmd)
}

// OnEvent runs on the consumer goroutine.
func (s *Sequencer) OnEvent(cmd *protocol.Command) {
	ev, err := DecodeEvent(s.serializer, cmd)
	if err != nil {
		logger.Warn("failed to decode command",
			"book_id", s.book.id,
			"symbol", cmd.Symbol,
			"seq_id", cmd.SeqID,
			"type", cmd.Type.String(),
			"error", err,
		)
		s.book.publish(s.book.newRejectLog(0, 0, protocol.RejectReasonInvalidPayload, time.Now().UTC()))
	} else if _, err := s.book.Event(ev); err != nil {
		// the book has already published a reject log
		if !errors.Is(err, ErrUnsupportedOperation) {
			logger.Debug("command rejected",
				"book_id", s.book.id,
				"seq_id", cmd.SeqID,
				"type", cmd.Type.String(),
				"error", err,
			)
		}
	}

	if cmd.SeqID > 0 {
		s.lastCmdSeqID.Store(cmd.SeqID)
	}
}

// LastCmdSeqID returns the SeqID of the last processed command that carried one.
func (s *Sequencer) LastCmdSeqID() uint64 {
	return s.lastCmdSeqID.Load()
}

// Book returns the order book driven by this sequencer. Reading it while the
// consumer runs is a data race; stop the sequencer first.
func (s *Sequencer) Book() *OrderBook {
	return s.book
}

// Shutdown stops accepting commands and waits until every accepted command has
// been applied to the book, or ctx is done.
func (s *Sequencer) Shutdown(ctx context.Context) error {
	s.isShutdown.Store(true)

	if !s.started.Load() {
		return nil
	}
	if err := s.ring.Shutdown(ctx); err != nil {
		return fmt.Errorf("sequencer %s: %w", s.book.instrument.Symbol, err)
	}
	return nil
}
