package projection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"qleon/contract"
	"qleon/domain/chat"
)

// mailbox queues snapshots for one observer and delivers them from its own goroutine.
// push never blocks: snapshots share their backing array so a pending entry
// costs a slice header, not a copy of the timeline.
type mailbox struct {
	log     *slog.Logger
	sink    contract.SnapshotSink
	timeout time.Duration

	mu      sync.Mutex
	pending []chat.Snapshot
	wake    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

func newMailbox(log *slog.Logger, sink contract.SnapshotSink, timeout time.Duration) *mailbox {
	ctx, cancel := context.WithCancel(context.Background())
	return &mailbox{
		log:     log,
		sink:    sink,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *mailbox) push(snapshot chat.Snapshot) {
	b.mu.Lock()
	b.pending = append(b.pending, snapshot)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// stop drops pending snapshots and cancels the delivery in progress, if any.
func (b *mailbox) stop() {
	b.cancel()
}

func (b *mailbox) run() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-b.wake:
		}
		for batch := b.drain(); len(batch) > 0; batch = b.drain() {
			for _, snapshot := range batch {
				if b.ctx.Err() != nil {
					return
				}
				b.deliver(snapshot)
			}
		}
	}
}

func (b *mailbox) drain() []chat.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.pending
	b.pending = nil
	return batch
}

// deliver isolates the observer: a panic or an error is logged and the next
// snapshot is delivered as usual.
func (b *mailbox) deliver(snapshot chat.Snapshot) {
	ctx, cancel := b.consumeContext()
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Observer panicked", "panic", r, "length", snapshot.Len())
		}
	}()

	if err := b.sink.Consume(ctx, snapshot); err != nil {
		b.log.Warn("Observer failed to consume snapshot", "error", err, "length", snapshot.Len())
	}
}

func (b *mailbox) consumeContext() (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(b.ctx)
	}
	return context.WithTimeout(b.ctx, b.timeout)
}
