package chat

import (
	"strings"
	"testing"

	"qleon/errors"

	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		wantErr  error
	}{
		{"bob", nil},
		{"Bob_42", nil},
		{"", errors.ErrUsernameEmpty},
		{"bo", errors.ErrUsernameTooShort},
		{"bob.smith", errors.ErrUsernameInvalid},
		{"émile", errors.ErrUsernameInvalid},
		{"a_very_long_username_over_32_chars", errors.ErrUsernameTooLong},
		{strings.Repeat("a", 32), nil},
		{strings.Repeat("a", 33), errors.ErrUsernameTooLong},
		{strings.Repeat("a", 33) + "!", errors.ErrUsernameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAppendCommands_Reject_Blank_Values(t *testing.T) {
	req := require.New(t)

	req.NoError(AppendSentCommand{Content: " hi "}.Validate())
	req.ErrorIs(AppendSentCommand{Content: " \t"}.Validate(), errors.ErrInvalidInput)

	req.NoError(AppendReceivedCommand{Sender: "bob", Content: "hi"}.Validate())
	req.ErrorIs(AppendReceivedCommand{Sender: "", Content: "hi"}.Validate(), errors.ErrInvalidInput)
	req.ErrorIs(AppendReceivedCommand{Sender: "bob", Content: ""}.Validate(), errors.ErrInvalidInput)
}

func TestAppendCommands_Reject_Invalid_UTF8(t *testing.T) {
	req := require.New(t)

	req.NoError(AppendSentCommand{Content: "héllo 👋"}.Validate())
	req.ErrorIs(AppendSentCommand{Content: "bad \xff"}.Validate(), errors.ErrInvalidInput)
	req.ErrorIs(AppendReceivedCommand{Sender: "bob", Content: "bad \xff"}.Validate(), errors.ErrInvalidInput)
	req.ErrorIs(AppendReceivedCommand{Sender: "b\xffb", Content: "hi"}.Validate(), errors.ErrInvalidInput)
}

func TestMessage_Identity(t *testing.T) {
	req := require.New(t)
	a := Message{Sender: "bob", Content: "hi", Timestamp: 10, Direction: Received}
	edited := Message{Sender: "bob", Content: "hi!", Timestamp: 10, Direction: Received}

	req.True(a.SameItem(edited))
	req.False(a.SameContent(edited))
	req.True(a.SameContent(a))
	req.Equal("RECEIVED", a.Direction.String())
}
