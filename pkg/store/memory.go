package store

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rahulxs/ping-chat/pkg/chat"
	"github.com/rahulxs/ping-chat/pkg/models"
)

// MemStore is an in-memory implementation of the message-store contract,
// used by tests and DEV_MODE runs. It honors the same monotonic flag
// semantics as the Postgres store.
type MemStore struct {
	mu       sync.RWMutex
	messages map[string]*models.Message
	users    []models.User
}

func NewMemStore() *MemStore {
	return &MemStore{messages: make(map[string]*models.Message)}
}

// AddUser seeds a roster entry.
func (s *MemStore) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

func (s *MemStore) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := cloneMessage(msg)
	saved.ID = uuid.New().String()
	saved.CreatedAt = time.Now().UTC()
	if saved.Kind == "" {
		saved.Kind = models.MessageKindText
	}
	s.messages[saved.ID] = saved
	return cloneMessage(saved), nil
}

func (s *MemStore) FindByID(_ context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return cloneMessage(msg), nil
}

func (s *MemStore) FindByPair(_ context.Context, userA, userB string) ([]models.Message, error) {
	s.mu.RLock()
	var out []models.Message
	for _, msg := range s.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, *cloneMessage(msg))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) MarkPairSeen(_ context.Context, senderID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID {
			msg.Seen = true
		}
	}
	return nil
}

func (s *MemStore) CountUnseen(_ context.Context, senderID, receiverID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, msg := range s.messages {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID &&
			!msg.Seen && !msg.IsDeleted && !msg.DeletedForUser(receiverID) {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) UpdateFlags(_ context.Context, id string, upd chat.FlagUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return sql.ErrNoRows
	}
	if upd.Seen != nil && *upd.Seen {
		msg.Seen = true
	}
	if upd.IsDeleted != nil && *upd.IsDeleted {
		msg.IsDeleted = true
	}
	if upd.AddDeletedFor != "" && !msg.DeletedForUser(upd.AddDeletedFor) {
		msg.DeletedFor = append(msg.DeletedFor, upd.AddDeletedFor)
	}
	return nil
}

func (s *MemStore) ListUsersExcept(_ context.Context, userID string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.ID != userID {
			out = append(out, u)
		}
	}
	return out, nil
}

func cloneMessage(msg *models.Message) *models.Message {
	c := *msg
	c.DeletedFor = append([]string(nil), msg.DeletedFor...)
	return &c
}

var _ chat.MessageStore = (*MemStore)(nil)
var _ chat.MessageStore = (*Store)(nil)
