package match

import (
	"context"
	"runtime"
	"sync/atomic"
)

// EventHandler consumes events published to a RingBuffer.
type EventHandler[T any] interface {
	OnEvent(event T)
}

// RingBuffer is a multi-producer, single-consumer ring buffer.
// Every event is handed to the handler on one consumer goroutine, in claim order.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence last written to slot i
	published []atomic.Int64

	handler    EventHandler[T]
	isShutdown atomic.Bool
	writers    atomic.Int64 // producers between the shutdown check and the slot write
	done       chan struct{}
}

// NewRingBuffer creates a RingBuffer. capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("size must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]atomic.Int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
		done:       make(chan struct{}),
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)

	for i := range rb.published {
		rb.published[i].Store(-1)
	}

	return rb
}

// Publish claims the next slot and writes event into it. It is safe for concurrent use.
// Publish blocks (yielding) while the buffer is full and returns false once shut down.
func (rb *RingBuffer[T]) Publish(event T) bool {
	rb.writers.Add(1)
	defer rb.writers.Add(-1)

	var nextSeq int64
	for {
		if rb.isShutdown.Load() {
			return false
		}

		current := rb.producerSequence.Load()
		nextSeq = current + 1

		// the producer may not lap the consumer
		wrapPoint := nextSeq - rb.capacity
		if wrapPoint > rb.consumerSequence.Load() {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(current, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event
	rb.published[index].Store(nextSeq)
	return true
}

// Run consumes events on the calling goroutine until Shutdown.
func (rb *RingBuffer[T]) Run() {
	defer close(rb.done)

	next := rb.consumerSequence.Load() + 1
	for {
		shutdown := rb.isShutdown.Load()
		available := rb.producerSequence.Load()

		processed := false
		for next <= available {
			rb.consume(next)
			next++
			processed = true
		}

		if shutdown && rb.writers.Load() == 0 && next > rb.producerSequence.Load() {
			return
		}
		if !processed {
			runtime.Gosched()
		}
	}
}

// Start runs the consumer on a new goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.Run()
}

func (rb *RingBuffer[T]) consume(seq int64) {
	index := seq & rb.bufferMask

	// the slot is claimed; wait until its producer finished writing it
	for rb.published[index].Load() != seq {
		runtime.Gosched()
	}

	event := rb.buffer[index]
	var zero T
	rb.buffer[index] = zero

	rb.handler.OnEvent(event)
	rb.consumerSequence.Store(seq)
}

// Shutdown stops accepting events and waits until the consumer has processed
// every claimed event, or ctx is done.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	select {
	case <-rb.done:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// ConsumerSequence returns the sequence of the last consumed event.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the sequence of the last claimed slot.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// PendingEvents returns the number of claimed but unconsumed events.
func (rb *RingBuffer[T]) PendingEvents() int64 {
	return rb.producerSequence.Load() - rb.consumerSequence.Load()
}
