package handlers

import (
	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/tools/decode"
)

// TypingHandler relays transient typing indicators. Nothing is persisted;
// a receiver with no live connection means the indicator is dropped, which
// is correct behavior rather than a failure.
type TypingHandler struct {
	typ      string
	isTyping bool
}

func NewTypingStartHandler() gateway.Handler {
	return &TypingHandler{typ: gateway.EvtTypingStart, isTyping: true}
}

func NewTypingStopHandler() gateway.Handler {
	return &TypingHandler{typ: gateway.EvtTypingStop, isTyping: false}
}

func (h *TypingHandler) Type() string { return h.typ }

func (h *TypingHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	p, err := decode.Payload[gateway.TypingPayload](e.Payload)
	if err != nil || p.ReceiverID == "" {
		return nil
	}
	ctx.S.SendToUser(p.ReceiverID, gateway.NewUserTypingEvent(c.UserID, h.isTyping))
	return nil
}
