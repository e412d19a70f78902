package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/errs"
	"github.com/ideatoapp/chatgateway/tools/security"
)

var testJWT = security.Options{Secret: []byte("rest-test-secret"), Alg: "HS256", TTL: time.Hour}

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAccounts is an in-memory storage.AccountStore for the HTTP handlers.
type fakeAccounts struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*storage.User // by ID
	byEmail  map[string]string        // email -> ID
	hashes   map[string]string        // ID -> password hash
	messages []*storage.Message
	contacts map[string][]*storage.Contact

	markReadCalls [][2]string // (senderID, receiverID) pairs
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		users:    make(map[string]*storage.User),
		byEmail:  make(map[string]string),
		hashes:   make(map[string]string),
		contacts: make(map[string][]*storage.Contact),
	}
}

func (s *fakeAccounts) seed(id, username, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &storage.User{ID: id, Username: username, Email: email, Status: storage.StatusOffline}
	s.byEmail[email] = id
}

func (s *fakeAccounts) seedMessage(senderID, receiverID, content string, read bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.messages = append(s.messages, &storage.Message{
		ID:         strconv.Itoa(s.seq),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     read,
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *fakeAccounts) GetUser(_ context.Context, userID string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeAccounts) UpdateUserStatus(_ context.Context, userID, status string, lastSeen time.Time) error {
	return nil
}

func (s *fakeAccounts) InsertMessage(_ context.Context, senderID, receiverID, content, messageType string) (*storage.Message, error) {
	return nil, errs.ErrPersistence
}

func (s *fakeAccounts) MarkMessagesRead(_ context.Context, senderID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markReadCalls = append(s.markReadCalls, [2]string{senderID, receiverID})
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID {
			m.IsRead = true
		}
	}
	return nil
}

func (s *fakeAccounts) GetConversation(_ context.Context, userID, otherUserID string, limit, offset int) ([]*storage.Message, error) {
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

func (s *fakeAccounts) InsertSession(_ context.Context, userID, connID string) error { return nil }
func (s *fakeAccounts) DeactivateSession(_ context.Context, connID string) error     { return nil }

func (s *fakeAccounts) UserOwnsProject(_ context.Context, projectID, userID string) (bool, error) {
	return false, nil
}

func (s *fakeAccounts) CreateUser(_ context.Context, username, email, passwordHash string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return nil, errs.ErrRecordExists
	}
	s.seq++
	id := "u-" + strconv.Itoa(s.seq)
	u := &storage.User{ID: id, Username: username, Email: email, Status: storage.StatusOffline}
	s.users[id] = u
	s.byEmail[email] = id
	s.hashes[id] = passwordHash
	cp := *u
	return &cp, nil
}

func (s *fakeAccounts) GetUserByEmail(_ context.Context, email string) (*storage.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, "", errs.ErrRecordNotFound
	}
	cp := *s.users[id]
	return &cp, s.hashes[id], nil
}

func (s *fakeAccounts) ListContacts(_ context.Context, userID string) ([]*storage.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*storage.Contact(nil), s.contacts[userID]...), nil
}

func (s *fakeAccounts) AddContact(_ context.Context, userID, contactID string) (*storage.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contacts[userID] {
		if c.ContactID == contactID {
			return nil, errs.ErrRecordExists
		}
	}
	c := &storage.Contact{UserID: userID, ContactID: contactID, Status: "accepted", CreatedAt: time.Now().UTC()}
	s.contacts[userID] = append(s.contacts[userID], c)
	cp := *c
	return &cp, nil
}

func newTestRouter(t *testing.T) (*fakeAccounts, *gin.Engine) {
	t.Helper()
	store := newFakeAccounts()
	gw := gateway.NewServer(gateway.ServerConfig{JWT: testJWT}, store, nil)
	return store, NewRouter(gw, store, testJWT)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := security.Generate(testJWT, userID)
	require.NoError(t, err)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	_, r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		User  storage.User `json:"user"`
		Token string       `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.NotEmpty(t, reg.Token)

	sub, err := security.Verify(testJWT, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sub)

	// same email again: rejected as a client error
	w = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice2", "email": "alice@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConversationMarksInboundRead(t *testing.T) {
	store, r := newTestRouter(t)
	store.seed("alice", "alice", "alice@example.com")
	store.seed("bob", "bob", "bob@example.com")
	store.seedMessage("bob", "alice", "hi alice", false)
	store.seedMessage("alice", "bob", "hi bob", false)

	w := doJSON(t, r, http.MethodGet, "/api/messages/conversation/bob", tokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Messages []*storage.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)

	// only messages bob sent to alice get flipped; alice's own stay untouched
	require.Len(t, store.markReadCalls, 1)
	assert.Equal(t, [2]string{"bob", "alice"}, store.markReadCalls[0])

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, m := range store.messages {
		if m.SenderID == "bob" {
			assert.True(t, m.IsRead)
		} else {
			assert.False(t, m.IsRead)
		}
	}
}

func TestConversationRequiresToken(t *testing.T) {
	_, r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/messages/conversation/bob", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddContact(t *testing.T) {
	store, r := newTestRouter(t)
	store.seed("alice", "alice", "alice@example.com")
	store.seed("bob", "bob", "bob@example.com")
	token := tokenFor(t, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/messages/contacts", token, gin.H{"contactId": "bob"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// duplicate
	w = doJSON(t, r, http.MethodPost, "/api/messages/contacts", token, gin.H{"contactId": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// self
	w = doJSON(t, r, http.MethodPost, "/api/messages/contacts", token, gin.H{"contactId": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown user
	w = doJSON(t, r, http.MethodPost, "/api/messages/contacts", token, gin.H{"contactId": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/messages/contacts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Contacts []*storage.Contact `json:"contacts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Contacts, 1)
}
