//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"qleon/domain/chat"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// IChatRepository keeps one summary per conversation for the recent chats list.
// Messages themselves are never stored.
type IChatRepository interface {
	SaveSummary(owner string, summary chat.Summary) error
	ListRecent(owner string) ([]chat.Summary, error)
}

type ChatRepository struct {
	db         *badger.DB
	log        *slog.Logger
	limitChats *int
}

func NewChatRepository(db *badger.DB, log *slog.Logger, limitChats *int) ChatRepository {
	return ChatRepository{db: db, log: log, limitChats: limitChats}
}

func chatPrefix(owner string) string {
	return fmt.Sprintf("chat:%s:", owner)
}

// SaveSummary overwrites the summary of the conversation between owner and summary.Contact.
// The key is formatted as "chat:{owner}:{contact}" so a prefix scan lists every
// conversation of an owner.
func (c ChatRepository) SaveSummary(owner string, summary chat.Summary) error {
	record, err := structpb.NewStruct(map[string]any{
		"contact":      summary.Contact,
		"last_message": summary.LastMessage,
		"direction":    int(summary.Direction),
		"at":           summary.At.UnixMilli(),
	})
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(record)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(chatPrefix(owner)+summary.Contact), bytes)
	})
}

// ListRecent returns the conversations of owner, most recent first.
// Only the configured number of chats is kept when a limit is set.
func (c ChatRepository) ListRecent(owner string) ([]chat.Summary, error) {
	var summaries []chat.Summary
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte(chatPrefix(owner))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				summary, err := ToSummary(value)
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(summaries, func(a, b chat.Summary) int {
		return b.At.Compare(a.At)
	})
	if c.limitChats != nil && len(summaries) > *c.limitChats {
		c.log.Debug(fmt.Sprintf("Maximum of %d chats reached", *c.limitChats))
		summaries = lo.Slice(summaries, 0, *c.limitChats)
	}
	return summaries, nil
}

func ToSummary(value []byte) (chat.Summary, error) {
	var record structpb.Struct
	if err := proto.Unmarshal(value, &record); err != nil {
		return chat.Summary{}, err
	}
	fields := record.GetFields()
	return chat.Summary{
		Contact:     fields["contact"].GetStringValue(),
		LastMessage: fields["last_message"].GetStringValue(),
		Direction:   chat.Direction(int(fields["direction"].GetNumberValue())),
		At:          time.UnixMilli(int64(fields["at"].GetNumberValue())).UTC(),
	}, nil
}
