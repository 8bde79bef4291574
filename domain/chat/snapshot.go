package chat

// Snapshot is a read-only view of a timeline at a point in time.
// The backing array may be shared with later snapshots: the slice is capped at
// its length so nothing can ever write into the visible range.
type Snapshot struct {
	messages []Message
}

func NewSnapshot(messages []Message) Snapshot {
	return Snapshot{messages: messages[:len(messages):len(messages)]}
}

func (s Snapshot) Len() int { return len(s.messages) }

func (s Snapshot) At(i int) Message { return s.messages[i] }

// Last returns the most recent message, false when the snapshot is empty.
func (s Snapshot) Last() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Messages returns a copy of the snapshot content.
func (s Snapshot) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Since returns the messages located after the first n ones, without copying.
func (s Snapshot) Since(n int) []Message {
	if n >= len(s.messages) {
		return nil
	}
	return s.messages[n:len(s.messages):len(s.messages)]
}

// Insertion describes one row added to the display.
type Insertion struct {
	Index   int
	Message Message
}

// Changes is the edit script between two snapshots of the same timeline.
// Timelines are append-only so Removed and Changed always stay at zero.
type Changes struct {
	Insertions []Insertion
	Removed    int
	Changed    int
}

func (c Changes) Empty() bool {
	return len(c.Insertions) == 0 && c.Removed == 0 && c.Changed == 0
}
