package gateway

import (
	"github.com/ideatoapp/chatgateway/tools/errs"
)

// Handler processes one inbound event type.
type Handler interface {
	Type() string
	Handle(ctx *Context, e *Event, c *Client) error
}

// Context hands handlers the server's capabilities.
type Context struct {
	S *Server
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) Get(typ string) Handler { return d.handlers[typ] }

func (d *Dispatcher) Dispatch(ctx *Context, e *Event, c *Client) error {
	h, ok := d.handlers[e.Type]
	if !ok {
		return errs.ErrUnknownEvent.WithDetail(e.Type)
	}
	return h.Handle(ctx, e, c)
}
