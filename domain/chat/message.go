// Package chat contains the core values of a conversation.
// Messages are immutable once built and snapshots are never mutated after publication.
// No runtime, storage, or UI logic should be added here.
package chat

import "fmt"

type Direction int

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	switch d {
	case Sent:
		return "SENT"
	case Received:
		return "RECEIVED"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Message represents an immutable chat message.
// Timestamp is expressed in unix milliseconds and is unique inside a conversation.
type Message struct {
	Sender    string
	Content   string
	Timestamp int64
	Direction Direction
}

// SameItem reports whether both messages denote the same timeline entry.
func (m Message) SameItem(other Message) bool {
	return m.Timestamp == other.Timestamp
}

// SameContent reports whether every field of both messages is equal.
func (m Message) SameContent(other Message) bool {
	return m == other
}

// InboundMessage is what the messaging backend hands over for each message
// addressed to Owner and written by From.
type InboundMessage struct {
	Owner   string
	From    string
	Content string
}
