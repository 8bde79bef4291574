// Package projection holds the local timeline of a conversation.
// Handles ordering, timestamp uniqueness, snapshots and their diffs.
// Does not persist anything and does not interact with the network or the UI directly.
package projection

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"qleon/contract"
	"qleon/domain/chat"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Subscription identifies one observer registered on a Store.
type Subscription struct {
	ID uuid.UUID
}

// Store owns the timeline of a single conversation.
//
// Appends are serialized: each published snapshot is the previous one plus
// exactly one message. Observers are notified through a dedicated mailbox so
// that a slow or failing observer never delays an append nor another observer.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	log         *slog.Logger
	owner       string
	clock       clockwork.Clock
	sinkTimeout time.Duration

	mu        sync.Mutex
	messages  []chat.Message
	mailboxes map[uuid.UUID]*mailbox
	closed    bool

	current atomic.Pointer[chat.Snapshot]
}

// NewStore creates an empty timeline whose sent messages are signed by owner.
// A zero sinkTimeout lets observers take as long as they want.
func NewStore(log *slog.Logger, owner string, clock clockwork.Clock, sinkTimeout time.Duration) *Store {
	s := &Store{
		log:         log.With("owner", owner),
		owner:       owner,
		clock:       clock,
		sinkTimeout: sinkTimeout,
		mailboxes:   make(map[uuid.UUID]*mailbox),
	}
	empty := chat.NewSnapshot(nil)
	s.current.Store(&empty)
	return s
}

func (s *Store) Owner() string { return s.owner }

// AppendSent records a message written by the local user.
func (s *Store) AppendSent(content string) (chat.Message, error) {
	if err := (chat.AppendSentCommand{Content: content}).Validate(); err != nil {
		return chat.Message{}, err
	}
	return s.append(s.owner, content, chat.Sent), nil
}

// AppendReceived records a message coming from the messaging backend.
func (s *Store) AppendReceived(content, sender string) (chat.Message, error) {
	if err := (chat.AppendReceivedCommand{Sender: sender, Content: content}).Validate(); err != nil {
		return chat.Message{}, err
	}
	return s.append(sender, content, chat.Received), nil
}

// CurrentSnapshot returns the latest published snapshot without locking.
func (s *Store) CurrentSnapshot() chat.Snapshot {
	return *s.current.Load()
}

// Subscribe registers sink and replays the current snapshot as its first delivery.
// Every later snapshot follows in publication order.
// Subscribing to a closed store returns a handle that never receives anything.
func (s *Store) Subscribe(sink contract.SnapshotSink) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := Subscription{ID: uuid.New()}
	if s.closed {
		s.log.Debug("Subscribe on closed timeline ignored", "subscription", sub.ID)
		return sub
	}
	box := newMailbox(s.log.With("subscription", sub.ID), sink, s.sinkTimeout)
	box.push(s.CurrentSnapshot())
	s.mailboxes[sub.ID] = box
	go box.run()
	return sub
}

// Unsubscribe stops deliveries to the observer. Unknown or already removed
// subscriptions are ignored.
func (s *Store) Unsubscribe(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.mailboxes[sub.ID]
	if !ok {
		return
	}
	delete(s.mailboxes, sub.ID)
	box.stop()
}

// Close releases every observer. The timeline content stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, box := range s.mailboxes {
		box.stop()
		delete(s.mailboxes, id)
	}
	s.log.Debug("Timeline closed", "messages", len(s.messages))
}

// append is the only writer of the timeline.
// Reading the last timestamp, building the message and publishing the snapshot
// happen under the same lock.
func (s *Store) append(sender, content string, direction chat.Direction) chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := chat.Message{
		Sender:    sender,
		Content:   content,
		Timestamp: s.nextTimestamp(),
		Direction: direction,
	}
	s.messages = append(s.messages, msg)

	snapshot := chat.NewSnapshot(s.messages)
	s.current.Store(&snapshot)
	for _, box := range s.mailboxes {
		box.push(snapshot)
	}
	return msg
}

// nextTimestamp returns the clock reading in milliseconds, bumped by one
// millisecond when the clock did not move past the previous message.
func (s *Store) nextTimestamp() int64 {
	now := s.clock.Now().UnixMilli()
	if n := len(s.messages); n > 0 {
		if last := s.messages[n-1].Timestamp; now <= last {
			return last + 1
		}
	}
	return now
}
