package gateway_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/errs"
)

// memStore is an in-memory storage.Store for gateway tests, with switches
// to force persistence failures.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*storage.User
	messages []*storage.Message
	sessions map[string]bool // connID -> active
	projects map[string]string

	failInsertMessage bool
	failUpdateStatus  bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*storage.User),
		sessions: make(map[string]bool),
		projects: make(map[string]string),
	}
}

func (s *memStore) addUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; ok {
		return
	}
	s.users[id] = &storage.User{ID: id, Username: "user-" + id, Status: storage.StatusOffline}
}

func (s *memStore) addProject(projectID, ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[projectID] = ownerID
}

func (s *memStore) userStatus(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Status
	}
	return ""
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *memStore) activeSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, active := range s.sessions {
		if active {
			n++
		}
	}
	return n
}

func (s *memStore) GetUser(_ context.Context, userID string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) UpdateUserStatus(_ context.Context, userID, status string, lastSeen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateStatus {
		return errs.ErrPersistence
	}
	if u, ok := s.users[userID]; ok {
		u.Status = status
		u.LastSeen = lastSeen
	}
	return nil
}

func (s *memStore) InsertMessage(_ context.Context, senderID, receiverID, content, messageType string) (*storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertMessage {
		return nil, errs.ErrPersistence
	}
	s.seq++
	m := &storage.Message{
		ID:          strconv.Itoa(s.seq),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: messageType,
		CreatedAt:   time.Now().UTC(),
	}
	s.messages = append(s.messages, m)
	cp := *m
	return &cp, nil
}

func (s *memStore) MarkMessagesRead(_ context.Context, senderID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID {
			m.IsRead = true
		}
	}
	return nil
}

func (s *memStore) GetConversation(_ context.Context, userID, otherUserID string, limit, offset int) ([]*storage.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storage.Message
	for _, m := range s.messages {
		if (m.SenderID == userID && m.ReceiverID == otherUserID) ||
			(m.SenderID == otherUserID && m.ReceiverID == userID) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) InsertSession(_ context.Context, userID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[connID] = true
	return nil
}

func (s *memStore) DeactivateSession(_ context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[connID]; ok {
		s.sessions[connID] = false
	}
	return nil
}

func (s *memStore) UserOwnsProject(_ context.Context, projectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects[projectID] == userID, nil
}
