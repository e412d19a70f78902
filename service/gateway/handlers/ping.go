package handlers

import (
	"github.com/ideatoapp/chatgateway/service/gateway"
	"github.com/ideatoapp/chatgateway/tools/decode"
)

// PingHandler answers application-level pings; transport liveness is the
// monitor's job, this just echoes the client's timestamp back.
type PingHandler struct{}

func NewPingHandler() gateway.Handler { return &PingHandler{} }

func (h *PingHandler) Type() string { return gateway.EvtPing }

func (h *PingHandler) Handle(ctx *gateway.Context, e *gateway.Event, c *gateway.Client) error {
	var ts int64
	if p, err := decode.Payload[gateway.PingPayload](e.Payload); err == nil {
		ts = p.Timestamp
	}
	c.EnqueueEvent(gateway.NewEvent(gateway.EvtPong, map[string]int64{"timestamp": ts}))
	return nil
}
