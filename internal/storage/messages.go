package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nfrund/chatgate/internal/domain"
)

const messagePrefix = "msg:"

// diskMessage is the stored form of a chat message.
type diskMessage struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Text     string `json:"text"`
	At       int64  `json:"at"`
}

// Messages is a domain.MessageStore backed by badger.
type Messages struct {
	db *badger.DB

	// mu keeps timestamps strictly increasing so key order is creation order.
	mu   sync.Mutex
	last int64
}

// NewMessages creates a message store on db.
func NewMessages(db *badger.DB) *Messages {
	return &Messages{db: db}
}

// Create persists msg. The key is "msg:{unix nano, 19 digits}:{uuid}" so a
// lexicographic scan is a chronological one.
func (m *Messages) Create(_ context.Context, msg domain.NewMessage) (*domain.ChatMessage, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	id := uuid.New()
	at := m.now()
	record := diskMessage{
		ID:       "message:" + id.String(),
		UserID:   msg.UserID.String(),
		UserName: msg.UserName,
		Text:     msg.Text,
		At:       at,
	}
	value, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Join(domain.ErrPersistence, err)
	}

	key := fmt.Sprintf("%s%019d:%s", messagePrefix, at, id)
	if err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return nil, errors.Join(domain.ErrPersistence, err)
	}
	return record.toDomain(), nil
}

// ListRecent returns up to limit of the newest messages, oldest first.
func (m *Messages) ListRecent(_ context.Context, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	var values [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key and walk backwards.
		for it.Seek(append(prefix, []byte("9999999999999999999;")...)); it.ValidForPrefix(prefix) && len(values) < limit; it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(domain.ErrPersistence, err)
	}

	messages := make([]*domain.ChatMessage, len(values))
	for i, v := range values {
		var record diskMessage
		if err := json.Unmarshal(v, &record); err != nil {
			return nil, errors.Join(domain.ErrPersistence, err)
		}
		messages[len(values)-1-i] = record.toDomain()
	}
	return messages, nil
}

func (m *Messages) now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := time.Now().UnixNano()
	if at <= m.last {
		at = m.last + 1
	}
	m.last = at
	return at
}

func (r diskMessage) toDomain() *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        r.ID,
		UserID:    domain.UserID(r.UserID),
		UserName:  r.UserName,
		Text:      r.Text,
		CreatedAt: time.Unix(0, r.At).UTC(),
	}
}
