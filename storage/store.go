package storage

import (
	"context"
	"time"
)

// User status values persisted in the users table.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Status    string    `json:"status"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Message is immutable once created except for IsRead, which only ever
// flips false -> true.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	ReceiverID  string    `json:"receiverId"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`

	// Joined in at read time; not part of the stored row.
	SenderName   string `json:"senderName,omitempty"`
	ReceiverName string `json:"receiverName,omitempty"`
}

type Contact struct {
	UserID    string    `json:"userId"`
	ContactID string    `json:"contactId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Contact   *User     `json:"contact,omitempty"`
}

// Store is the durable-store contract the gateway consumes. Calls are
// independent; no transaction spans more than one of them. The gateway
// never retries — failures surface to the caller.
type Store interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	UpdateUserStatus(ctx context.Context, userID, status string, lastSeen time.Time) error

	InsertMessage(ctx context.Context, senderID, receiverID, content, messageType string) (*Message, error)
	MarkMessagesRead(ctx context.Context, senderID, receiverID string) error
	GetConversation(ctx context.Context, userID, otherUserID string, limit, offset int) ([]*Message, error)

	InsertSession(ctx context.Context, userID, connID string) error
	DeactivateSession(ctx context.Context, connID string) error

	// UserOwnsProject backs the authorization-checked project subscription.
	UserOwnsProject(ctx context.Context, projectID, userID string) (bool, error)
}

// AccountStore extends Store with the credential operations the HTTP API
// needs; the gateway itself never touches passwords.
type AccountStore interface {
	Store

	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, string, error)

	ListContacts(ctx context.Context, userID string) ([]*Contact, error)
	AddContact(ctx context.Context, userID, contactID string) (*Contact, error)
}
