package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qleon/domain/chat"
	"qleon/errors"
	"qleon/projection"
	"qleon/repositories"
	"qleon/runtime"

	"github.com/jonboulle/clockwork"
)

type IChatService interface {
	StartChat(owner, username string) (chat.Contact, error)
	OpenConversation(owner, contact string) *projection.Store
	CloseConversation(owner, contact string)
	Conversation(owner, contact string) (*projection.Store, error)
	SendMessage(owner, contact, content string) (chat.Message, error)
	ReceiveMessage(inbound chat.InboundMessage) (chat.Message, error)
	RecentChats(owner string) ([]chat.Summary, error)
}

type ChatService struct {
	log            *slog.Logger
	registry       *runtime.Registry
	userRepository repositories.IUserRepository
	chatRepository repositories.IChatRepository
	clock          clockwork.Clock
	sinkTimeout    time.Duration
}

func NewChatService(
	log *slog.Logger,
	registry *runtime.Registry,
	userRepository repositories.IUserRepository,
	chatRepository repositories.IChatRepository,
	clock clockwork.Clock,
	sinkTimeout time.Duration,
) *ChatService {
	return &ChatService{
		log:            log,
		registry:       registry,
		userRepository: userRepository,
		chatRepository: chatRepository,
		clock:          clock,
		sinkTimeout:    sinkTimeout,
	}
}

// StartChat resolves the username typed on the new chat screen into a contact.
func (s *ChatService) StartChat(owner, username string) (chat.Contact, error) {
	username = strings.TrimSpace(username)
	if err := (chat.StartChatCommand{Username: username}).Validate(); err != nil {
		return chat.Contact{}, err
	}
	if username == owner {
		return chat.Contact{}, fmt.Errorf("%w: cannot start a chat with yourself", errors.ErrUsernameInvalid)
	}
	user, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		return chat.Contact{}, err
	}
	s.log.Debug("Contact found", "owner", owner, "contact", user.Username)
	return chat.Contact{UserID: user.ID, Username: user.Username}, nil
}

// OpenConversation returns the timeline shown when owner opens the chat with contact.
func (s *ChatService) OpenConversation(owner, contact string) *projection.Store {
	id := runtime.ConversationID{Owner: owner, Contact: contact}
	return s.registry.Open(id, func() *projection.Store {
		s.log.Debug("Opening conversation", "owner", owner, "contact", contact)
		return projection.NewStore(s.log.With("contact", contact), owner, s.clock, s.sinkTimeout)
	})
}

// CloseConversation discards the timeline; its messages are gone for good.
func (s *ChatService) CloseConversation(owner, contact string) {
	if s.registry.Close(runtime.ConversationID{Owner: owner, Contact: contact}) {
		s.log.Debug("Conversation closed", "owner", owner, "contact", contact)
	}
}

func (s *ChatService) Conversation(owner, contact string) (*projection.Store, error) {
	store, ok := s.registry.Get(runtime.ConversationID{Owner: owner, Contact: contact})
	if !ok {
		return nil, fmt.Errorf("%w: %s with %s", errors.ErrConversationNotFound, owner, contact)
	}
	return store, nil
}

func (s *ChatService) SendMessage(owner, contact, content string) (chat.Message, error) {
	store, err := s.Conversation(owner, contact)
	if err != nil {
		return chat.Message{}, err
	}
	msg, err := store.AppendSent(content)
	if err != nil {
		return chat.Message{}, err
	}
	s.saveSummary(owner, contact, msg)
	return msg, nil
}

// ReceiveMessage records an inbound message.
// The recent chats list is always updated, but the message itself is only kept
// when the conversation is open: timelines do not exist outside an open chat.
func (s *ChatService) ReceiveMessage(inbound chat.InboundMessage) (chat.Message, error) {
	cmd := chat.AppendReceivedCommand{Sender: inbound.From, Content: inbound.Content}
	if err := cmd.Validate(); err != nil {
		return chat.Message{}, err
	}
	store, err := s.Conversation(inbound.Owner, inbound.From)
	if err != nil {
		s.saveSummary(inbound.Owner, inbound.From, chat.Message{
			Sender:    inbound.From,
			Content:   inbound.Content,
			Timestamp: s.clock.Now().UnixMilli(),
			Direction: chat.Received,
		})
		return chat.Message{}, err
	}
	msg, err := store.AppendReceived(inbound.Content, inbound.From)
	if err != nil {
		return chat.Message{}, err
	}
	s.saveSummary(inbound.Owner, inbound.From, msg)
	return msg, nil
}

func (s *ChatService) RecentChats(owner string) ([]chat.Summary, error) {
	return s.chatRepository.ListRecent(owner)
}

// saveSummary never fails the append that already happened.
func (s *ChatService) saveSummary(owner, contact string, msg chat.Message) {
	summary := chat.Summary{
		Contact:     contact,
		LastMessage: msg.Content,
		Direction:   msg.Direction,
		At:          time.UnixMilli(msg.Timestamp).UTC(),
	}
	if err := s.chatRepository.SaveSummary(owner, summary); err != nil {
		s.log.Warn("Unable to update recent chats", "owner", owner, "contact", contact, "error", err)
	}
}
