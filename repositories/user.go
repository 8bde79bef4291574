//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"qleon/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IUserRepository interface {
	CreateUser(username, hashedPassword string) (string, error)
	GetUserByUsername(username string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the directory entry of an account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// CreateUser persists a new account under its username, which must be free.
// It returns the newly generated user ID.
func (u UserRepository) CreateUser(username, hashedPassword string) (string, error) {
	newID := uuid.New().String()
	data, err := marshalUser(User{
		ID:           newID,
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// GetUserByUsername is an exact match lookup on the username.
func (u UserRepository) GetUserByUsername(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = ToUser(val)
			return err
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func marshalUser(user User) ([]byte, error) {
	record, err := structpb.NewStruct(map[string]any{
		"id":            user.ID,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"created_at":    user.CreatedAt.Unix(),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(record)
}

func ToUser(data []byte) (User, error) {
	var record structpb.Struct
	if err := proto.Unmarshal(data, &record); err != nil {
		return User{}, err
	}
	fields := record.GetFields()
	return User{
		ID:           fields["id"].GetStringValue(),
		Username:     fields["username"].GetStringValue(),
		PasswordHash: fields["password_hash"].GetStringValue(),
		CreatedAt:    time.Unix(int64(fields["created_at"].GetNumberValue()), 0).UTC(),
	}, nil
}
