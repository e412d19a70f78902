package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/ideatoapp/chatgateway/tools/errs"
	"github.com/ideatoapp/chatgateway/tools/ids"
)

// PostgresStore implements AccountStore on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, email, COALESCE(full_name,''), COALESCE(avatar_url,''), status, last_seen
		 FROM users WHERE id = $1`, userID)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.Status, &u.LastSeen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrRecordNotFound.WrapMsg("user", "id", userID)
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

func (s *PostgresStore) UpdateUserStatus(ctx context.Context, userID, status string, lastSeen time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET status = $2, last_seen = $3 WHERE id = $1`,
		userID, status, lastSeen)
	return errors.Wrap(err, "update user status")
}

func (s *PostgresStore) InsertMessage(ctx context.Context, senderID, receiverID, content, messageType string) (*Message, error) {
	id := ids.GenerateString()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content, message_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, sender_id, receiver_id, content, message_type, is_read, created_at`,
		id, senderID, receiverID, content, messageType)
	var m Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType, &m.IsRead, &m.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "insert message")
	}
	return &m, nil
}

func (s *PostgresStore) MarkMessagesRead(ctx context.Context, senderID, receiverID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE messages SET is_read = TRUE
		 WHERE sender_id = $1 AND receiver_id = $2 AND is_read = FALSE`,
		senderID, receiverID)
	return errors.Wrap(err, "mark messages read")
}

func (s *PostgresStore) GetConversation(ctx context.Context, userID, otherUserID string, limit, offset int) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT m.id, m.sender_id, m.receiver_id, m.content, m.message_type, m.is_read, m.created_at,
		        su.username, ru.username
		 FROM messages m
		 JOIN users su ON su.id = m.sender_id
		 JOIN users ru ON ru.id = m.receiver_id
		 WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		    OR (m.sender_id = $2 AND m.receiver_id = $1)
		 ORDER BY m.created_at DESC
		 LIMIT $3 OFFSET $4`,
		userID, otherUserID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "query conversation")
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType,
			&m.IsRead, &m.CreatedAt, &m.SenderName, &m.ReceiverName); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "conversation rows")
	}
	// oldest first for the client
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *PostgresStore) InsertSession(ctx context.Context, userID, connID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_sessions (user_id, conn_id, is_active) VALUES ($1, $2, TRUE)`,
		userID, connID)
	return errors.Wrap(err, "insert session")
}

func (s *PostgresStore) DeactivateSession(ctx context.Context, connID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE conn_id = $1`, connID)
	return errors.Wrap(err, "deactivate session")
}

func (s *PostgresStore) UserOwnsProject(ctx context.Context, projectID, userID string) (bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)`,
		projectID, userID)
	var owns bool
	if err := row.Scan(&owns); err != nil {
		return false, errors.Wrap(err, "check project ownership")
	}
	return owns, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	id := ids.GenerateString()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, status)
		 VALUES ($1, $2, $3, $4, 'offline')
		 RETURNING id, username, email, COALESCE(full_name,''), COALESCE(avatar_url,''), status, last_seen`,
		id, username, email, passwordHash)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.Status, &u.LastSeen); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, string, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, username, email, COALESCE(full_name,''), COALESCE(avatar_url,''), status, last_seen, password_hash
		 FROM users WHERE email = $1`, email)
	var u User
	var hash string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.Status, &u.LastSeen, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", errs.ErrRecordNotFound.WrapMsg("user", "email", email)
		}
		return nil, "", errors.Wrap(err, "get user by email")
	}
	return &u, hash, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, userID string) ([]*Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.user_id, c.contact_id, c.status, c.created_at,
		        u.id, u.username, u.email, COALESCE(u.full_name,''), COALESCE(u.avatar_url,''), u.status, u.last_seen
		 FROM contacts c
		 JOIN users u ON u.id = c.contact_id
		 WHERE c.user_id = $1 AND c.status = 'accepted'
		 ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query contacts")
	}
	defer rows.Close()

	var out []*Contact
	for rows.Next() {
		var c Contact
		var u User
		if err := rows.Scan(&c.UserID, &c.ContactID, &c.Status, &c.CreatedAt,
			&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.Status, &u.LastSeen); err != nil {
			return nil, errors.Wrap(err, "scan contact")
		}
		c.Contact = &u
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddContact(ctx context.Context, userID, contactID string) (*Contact, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contacts WHERE user_id = $1 AND contact_id = $2)`,
		userID, contactID).Scan(&exists); err != nil {
		return nil, errors.Wrap(err, "check contact")
	}
	if exists {
		return nil, errs.ErrRecordExists.WrapMsg("contact", "id", contactID)
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (user_id, contact_id, status) VALUES ($1, $2, 'accepted')
		 RETURNING user_id, contact_id, status, created_at`,
		userID, contactID)
	var c Contact
	if err := row.Scan(&c.UserID, &c.ContactID, &c.Status, &c.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "add contact")
	}
	return &c, nil
}
