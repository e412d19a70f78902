package gateway

import (
	"encoding/json"
	"time"

	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/errs"
)

// Inbound event types.
const (
	EvtJoinChat           = "join_chat"
	EvtLeaveChat          = "leave_chat"
	EvtSendMessage        = "send_message"
	EvtTypingStart        = "typing_start"
	EvtTypingStop         = "typing_stop"
	EvtSubscribeProject   = "subscribe_project"
	EvtUnsubscribeProject = "unsubscribe_project"
	EvtAgentStatusUpdate  = "agent_status_update"
	EvtProjectUpdate      = "project_update"
	EvtPing               = "ping"
)

// Outbound event types.
const (
	EvtConnection          = "connection"
	EvtUserStatusChanged   = "user_status_changed"
	EvtNewMessage          = "new_message"
	EvtMessageSent         = "message_sent"
	EvtMessageError        = "message_error"
	EvtUserTyping          = "user_typing"
	EvtProjectSubscribed   = "project_subscribed"
	EvtProjectUnsubscribed = "project_unsubscribed"
	EvtAgentStatusUpdated  = "agent_status_updated"
	EvtProjectUpdated      = "project_updated"
	EvtPong                = "pong"
	EvtError               = "error"
)

// Event is the wire envelope, both directions.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

func ParseEvent(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, errs.ErrValidation.WithDetail("malformed event: " + err.Error())
	}
	if e.Type == "" {
		return nil, errs.ErrValidation.WithDetail("event type missing")
	}
	return &e, nil
}

// NewEvent builds an outbound envelope. The payload must marshal; callers
// only pass known-good types so a failure here is a programming error and
// is reported as an internal error event instead of crashing the pump.
func NewEvent(typ string, payload any) *Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"error": "payload encoding failed"})
		typ = EvtError
	}
	return &Event{
		Type:      typ,
		Payload:   raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (e *Event) Encode() []byte {
	b, _ := json.Marshal(e)
	return b
}

// ---- inbound payloads ----

type JoinChatPayload struct {
	ChatID string `json:"chatId"`
}

type SendMessagePayload struct {
	ReceiverID  string `json:"receiverId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
}

type ProjectPayload struct {
	ProjectID string `json:"projectId"`
}

type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// ---- outbound builders ----

func NewStatusChangedEvent(userID, status string) *Event {
	return NewEvent(EvtUserStatusChanged, map[string]string{
		"userId": userID,
		"status": status,
	})
}

func NewMessageSentEvent(m *storage.Message) *Event {
	return NewEvent(EvtMessageSent, m)
}

func NewNewMessageEvent(m *storage.Message) *Event {
	return NewEvent(EvtNewMessage, m)
}

func NewMessageErrorEvent(detail string) *Event {
	return NewEvent(EvtMessageError, map[string]string{"error": detail})
}

func NewUserTypingEvent(userID string, isTyping bool) *Event {
	return NewEvent(EvtUserTyping, map[string]any{
		"userId":   userID,
		"isTyping": isTyping,
	})
}

func NewErrorEvent(detail string) *Event {
	return NewEvent(EvtError, map[string]string{"error": detail})
}
