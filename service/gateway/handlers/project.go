package handlers

import (
	"context"

	"github.com/ideatoapp/chatgateway/logger"
	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/tools/decode"
)

func projectRoom(projectID string) string { return "project:" + projectID }

// SubscribeProjectHandler admits a connection to a project's update channel
// only after the durable store confirms ownership — the stricter capability
// next to the open join_chat.
type SubscribeProjectHandler struct{}

func NewSubscribeProjectHandler() gateway.Handler { return &SubscribeProjectHandler{} }

func (h *SubscribeProjectHandler) Type() string { return gateway.EvtSubscribeProject }

func (h *SubscribeProjectHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	p, err := decode.Payload[gateway.ProjectPayload](e.Payload)
	if err != nil || p.ProjectID == "" {
		c.EnqueueEvent(gateway.NewErrorEvent("projectId is required"))
		return nil
	}

	owns, err := ctx.S.Store().UserOwnsProject(context.Background(), p.ProjectID, c.UserID)
	if err != nil {
		logger.Errorf("[project] ownership check project=%s user=%s err=%v", p.ProjectID, c.UserID, err)
		c.EnqueueEvent(gateway.NewErrorEvent("failed to subscribe to project"))
		return nil
	}
	if !owns {
		c.EnqueueEvent(gateway.NewErrorEvent("project not found or access denied"))
		return nil
	}

	ctx.S.Directory().JoinRoom(projectRoom(p.ProjectID), c.ConnID)
	c.EnqueueEvent(gateway.NewEvent(gateway.EvtProjectSubscribed, map[string]string{
		"projectId": p.ProjectID,
		"status":    "subscribed",
	}))
	logger.Infof("[project] user=%s subscribed project=%s", c.UserID, p.ProjectID)
	return nil
}

type UnsubscribeProjectHandler struct{}

func NewUnsubscribeProjectHandler() gateway.Handler { return &UnsubscribeProjectHandler{} }

func (h *UnsubscribeProjectHandler) Type() string { return gateway.EvtUnsubscribeProject }

func (h *UnsubscribeProjectHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	p, err := decode.Payload[gateway.ProjectPayload](e.Payload)
	if err != nil || p.ProjectID == "" {
		return nil
	}
	ctx.S.Directory().LeaveRoom(projectRoom(p.ProjectID), c.ConnID)
	c.EnqueueEvent(gateway.NewEvent(gateway.EvtProjectUnsubscribed, map[string]string{
		"projectId": p.ProjectID,
		"status":    "unsubscribed",
	}))
	return nil
}

// AgentStatusHandler relays agent execution progress to everyone subscribed
// to the project. Subscription (and therefore ownership) is a precondition.
type AgentStatusHandler struct{}

func NewAgentStatusHandler() gateway.Handler { return &AgentStatusHandler{} }

func (h *AgentStatusHandler) Type() string { return gateway.EvtAgentStatusUpdate }

func (h *AgentStatusHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	type payload struct {
		ProjectID   string `json:"projectId"`
		ExecutionID string `json:"executionId"`
		Status      string `json:"status"`
		Progress    int    `json:"progress"`
		Message     string `json:"message"`
	}
	p, err := decode.Payload[payload](e.Payload)
	if err != nil || p.ProjectID == "" {
		c.EnqueueEvent(gateway.NewErrorEvent("projectId is required"))
		return nil
	}
	room := projectRoom(p.ProjectID)
	if !ctx.S.Directory().InRoom(room, c.ConnID) {
		c.EnqueueEvent(gateway.NewErrorEvent("project subscription required"))
		return nil
	}
	ctx.S.SendToRoom(room, gateway.NewEvent(gateway.EvtAgentStatusUpdated, map[string]any{
		"executionId": p.ExecutionID,
		"status":      p.Status,
		"progress":    p.Progress,
		"message":     p.Message,
		"updatedBy":   c.UserID,
	}))
	return nil
}

type ProjectUpdateHandler struct{}

func NewProjectUpdateHandler() gateway.Handler { return &ProjectUpdateHandler{} }

func (h *ProjectUpdateHandler) Type() string { return gateway.EvtProjectUpdate }

func (h *ProjectUpdateHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	type payload struct {
		ProjectID  string         `json:"projectId"`
		UpdateType string         `json:"updateType"`
		Data       map[string]any `json:"data"`
	}
	p, err := decode.Payload[payload](e.Payload)
	if err != nil || p.ProjectID == "" {
		c.EnqueueEvent(gateway.NewErrorEvent("projectId is required"))
		return nil
	}
	room := projectRoom(p.ProjectID)
	if !ctx.S.Directory().InRoom(room, c.ConnID) {
		c.EnqueueEvent(gateway.NewErrorEvent("project subscription required"))
		return nil
	}
	ctx.S.SendToRoom(room, gateway.NewEvent(gateway.EvtProjectUpdated, map[string]any{
		"projectId":  p.ProjectID,
		"updateType": p.UpdateType,
		"data":       p.Data,
		"updatedBy":  c.UserID,
	}))
	return nil
}
