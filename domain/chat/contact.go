package chat

import "time"

// Contact is a user that can be chatted with.
type Contact struct {
	UserID   string
	Username string
}

// Summary is one row of the recent chats list.
type Summary struct {
	Contact     string
	LastMessage string
	Direction   Direction
	At          time.Time
}
