package handlers

import (
	"github.com/ideatoapp/chatgateway/logger"
	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/tools/decode"
)

// Chat rooms are opt-in delivery subscriptions, not authorization
// boundaries: any authenticated connection may join any chat room. The
// authorization-checked variant is the project subscription in project.go.
type JoinChatHandler struct{}

func NewJoinChatHandler() gateway.Handler { return &JoinChatHandler{} }

func (h *JoinChatHandler) Type() string { return gateway.EvtJoinChat }

func (h *JoinChatHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	p, err := decode.Payload[gateway.JoinChatPayload](e.Payload)
	if err != nil || p.ChatID == "" {
		return nil
	}
	ctx.S.Directory().JoinRoom(p.ChatID, c.ConnID)
	logger.Infof("[rooms] user=%s joined chat=%s", c.UserID, p.ChatID)
	return nil
}

type LeaveChatHandler struct{}

func NewLeaveChatHandler() gateway.Handler { return &LeaveChatHandler{} }

func (h *LeaveChatHandler) Type() string { return gateway.EvtLeaveChat }

func (h *LeaveChatHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	p, err := decode.Payload[gateway.JoinChatPayload](e.Payload)
	if err != nil || p.ChatID == "" {
		return nil
	}
	ctx.S.Directory().LeaveRoom(p.ChatID, c.ConnID)
	logger.Infof("[rooms] user=%s left chat=%s", c.UserID, p.ChatID)
	return nil
}
