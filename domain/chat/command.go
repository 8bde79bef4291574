package chat

// AppendSentCommand is issued by the input layer when the local user submits a message.
type AppendSentCommand struct {
	Content string `validate:"notblank,utf8"`
}

// AppendReceivedCommand is issued for every inbound message, in arrival order.
type AppendReceivedCommand struct {
	Sender  string `validate:"notblank,utf8"`
	Content string `validate:"notblank,utf8"`
}

// StartChatCommand looks a contact up by username before opening a conversation.
type StartChatCommand struct {
	Username string `validate:"required,min=3,max=32,username"`
}
