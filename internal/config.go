package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH"`
	AuthSecret        string        `env:"AUTH_SECRET,required=true" validate:"min=16"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=720h" validate:"gt=0"`
	SessionFilepath   string        `env:"SESSION_FILEPATH,default=.qleon_session" validate:"required"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gte=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gte=0"`
	InboundBufferSize int           `env:"INBOUND_BUFFER_SIZE,default=64" validate:"gte=0"`
	LimitRecentChats  *int          `env:"LIMIT_RECENT_CHATS" validate:"omitempty,gt=0"`
}

var validate = validator.New()

// Validate rejects values go-env accepts but the runtime cannot work with.
// A zero INBOUND_BUFFER_SIZE is allowed and makes the inbound channel unbuffered.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
