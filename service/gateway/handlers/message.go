package handlers

import (
	"context"

	"github.com/ideatoapp/chatgateway/logger"
	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/tools/decode"
)

// MessageHandler is the message relay: validate, persist, then deliver.
// The sender identity always comes from the authenticated connection; a
// client-supplied sender field is never trusted.
type MessageHandler struct{}

func NewMessageHandler() gateway.Handler { return &MessageHandler{} }

func (h *MessageHandler) Type() string { return gateway.EvtSendMessage }

func (h *MessageHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	p, err := decode.Payload[gateway.SendMessagePayload](e.Payload)
	if err != nil {
		c.EnqueueEvent(gateway.NewMessageErrorEvent("invalid send_message payload"))
		return nil
	}
	if p.ReceiverID == "" || p.Content == "" {
		c.EnqueueEvent(gateway.NewMessageErrorEvent("receiverId and content are required"))
		return nil
	}
	if p.MessageType == "" {
		p.MessageType = "text"
	}

	// Persist before any delivery: no message is ever delivered live
	// without being durably recorded first.
	msg, err := ctx.S.Store().InsertMessage(context.Background(), c.UserID, p.ReceiverID, p.Content, p.MessageType)
	if err != nil {
		logger.Errorf("[relay] insert message sender=%s receiver=%s err=%v", c.UserID, p.ReceiverID, err)
		c.EnqueueEvent(gateway.NewMessageErrorEvent("failed to send message"))
		return nil
	}

	// ack the originating connection
	c.EnqueueEvent(gateway.NewMessageSentEvent(msg))

	// deliver to every live connection of the receiver; none online is
	// fine — the record is picked up later via the conversation fetch
	ctx.S.SendToUser(p.ReceiverID, gateway.NewNewMessageEvent(msg))
	return nil
}
