package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"qleon/auth"
	"qleon/domain/chat"
	"qleon/errors"
	"qleon/internal"
	"qleon/projection"
	"qleon/repositories"
	"qleon/runtime"
	"qleon/runtime/workers"
	"qleon/services"
	"qleon/ui"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and keeps cleanup in defers so the database and
// the open conversation are released whatever the exit path.
func run() error {
	username := flag.String("user", "", "username to sign in with, the stored session is used when empty")
	password := flag.String("password", "", "password of the user")
	register := flag.Bool("register", false, "create the account before signing in")
	contactName := flag.String("contact", "", "username to chat with, only recent chats are listed when empty")
	flag.Parse()

	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB), users and recent chats only
	dbPath := lo.Ternary(config.BadgerFilepath != "", config.BadgerFilepath, database.DefaultPath)
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Debug("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Services
	clock := clockwork.NewRealClock()
	userRepository := repositories.NewUserRepository(db)
	chatRepository := repositories.NewChatRepository(db, log, config.LimitRecentChats)
	issuer := auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration, clock)
	authService := services.NewAuthService(userRepository, issuer)
	registry := runtime.NewRegistry()
	chatService := services.NewChatService(log, registry, userRepository, chatRepository, clock, config.SinkTimeout)

	// 4. Splash: resume the stored session or sign in
	identity, err := signIn(authService, config.SessionFilepath, *username, *password, *register)
	if err != nil {
		return err
	}
	defer registry.CloseAll(identity.Username)
	terminal := ui.NewTerminal(os.Stdout)
	terminal.Printf("Signed in as %s\n", identity.Username)

	// 5. Home: recent chats, then the conversation if one was asked for
	recent, err := chatService.RecentChats(identity.Username)
	if err != nil {
		return fmt.Errorf("recent chats: %w", err)
	}
	terminal.RenderRecentChats(recent)
	if *contactName == "" {
		return nil
	}
	contact, err := chatService.StartChat(identity.Username, *contactName)
	if err != nil {
		return err
	}
	store := chatService.OpenConversation(identity.Username, contact.Username)
	defer chatService.CloseConversation(identity.Username, contact.Username)
	sub := store.Subscribe(projection.NewDiffSink(terminal.Render))
	defer store.Unsubscribe(sub)

	// 6. Inbound messages under supervision
	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(signalCtx)
	defer cancel()

	inbound := make(chan chat.InboundMessage, config.InboundBufferSize)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewInboundWorker(log, inbound, chatService))
	supervised := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervised)
	}()

	terminal.Printf("Chatting with %s. /recv <text> simulates an answer, /chats lists recent chats, /quit leaves.\n", contact.Username)
	conversation := session{
		terminal: terminal,
		chats:    chatService,
		owner:    identity.Username,
		contact:  contact.Username,
		inbound:  inbound,
	}
	err = conversation.loop(ctx, os.Stdin)

	// 7. Final cleanup
	cancel()
	<-supervised
	log.Info("Conversation closed", "contact", contact.Username)
	return err
}

// signIn resumes the stored session when no username is given.
// A successful sign in replaces the stored session.
func signIn(authService services.IAuthService, sessionPath, username, password string, register bool) (services.Identity, error) {
	if username == "" {
		data, err := os.ReadFile(sessionPath)
		if err != nil {
			return services.Identity{}, fmt.Errorf("no stored session, sign in with -user and -password")
		}
		identity, err := authService.Resume(services.Token(strings.TrimSpace(string(data))))
		if err != nil {
			return services.Identity{}, fmt.Errorf("session expired, sign in with -user and -password: %w", err)
		}
		return identity, nil
	}

	signInFn := authService.Login
	if register {
		signInFn = authService.Register
	}
	token, err := signInFn(username, password)
	if err != nil {
		return services.Identity{}, err
	}
	identity, err := authService.Resume(token)
	if err != nil {
		return services.Identity{}, err
	}
	if err = os.WriteFile(sessionPath, []byte(token.String()), 0o600); err != nil {
		return services.Identity{}, fmt.Errorf("unable to store session: %w", err)
	}
	return identity, nil
}

type session struct {
	terminal *ui.Terminal
	chats    services.IChatService
	owner    string
	contact  string
	inbound  chan<- chat.InboundMessage
}

// loop reads one command or message per line until /quit, EOF or cancellation.
func (s session) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if quit := s.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (s session) handle(ctx context.Context, line string) bool {
	switch {
	case line == "/quit":
		return true
	case line == "/chats":
		recent, err := s.chats.RecentChats(s.owner)
		if err != nil {
			s.terminal.Printf("Unable to list chats: %v\n", err)
			return false
		}
		s.terminal.RenderRecentChats(recent)
	case strings.HasPrefix(line, "/recv "):
		select {
		case s.inbound <- chat.InboundMessage{Owner: s.owner, From: s.contact, Content: strings.TrimPrefix(line, "/recv ")}:
		case <-ctx.Done():
		}
	default:
		_, err := s.chats.SendMessage(s.owner, s.contact, line)
		if stderrors.Is(err, errors.ErrInvalidInput) {
			s.terminal.Printf("Message cannot be empty\n")
		} else if err != nil {
			s.terminal.Printf("Message not sent: %v\n", err)
		}
	}
	return false
}
