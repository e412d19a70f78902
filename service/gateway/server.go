package gateway

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ideatoapp/chatgateway/logger"
	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/errs"
	"github.com/ideatoapp/chatgateway/tools/ids"
	"github.com/ideatoapp/chatgateway/tools/safe"
	"github.com/ideatoapp/chatgateway/tools/security"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type ServerConfig struct {
	NodeID            string
	JWT               security.Options
	HeartbeatInterval time.Duration
	SendQueueSize     int
	FanoutWorkers     int
}

func (c *ServerConfig) norm() {
	if c.NodeID == "" {
		c.NodeID = "gw-1"
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = 4
	}
}

// Server owns the websocket side of the gateway: the auth gate, the session
// directory, the dispatcher, and the liveness monitor.
type Server struct {
	cfg      ServerConfig
	dir      *SessionDirectory
	disp     *Dispatcher
	store    storage.Store
	presence *PresencePublisher
	fanout   *Fanout
	monitor  *LivenessMonitor
}

func NewServer(cfg ServerConfig, store storage.Store, cache *storage.Presence) *Server {
	cfg.norm()
	s := &Server{
		cfg:    cfg,
		dir:    NewSessionDirectory(),
		disp:   NewDispatcher(),
		store:  store,
		fanout: NewFanout(cfg.FanoutWorkers, 1024),
	}
	s.presence = NewPresencePublisher(store, cache, cfg.NodeID, s.BroadcastExceptUser)
	s.monitor = NewLivenessMonitor(s, cfg.HeartbeatInterval)
	return s
}

func (s *Server) Directory() *SessionDirectory { return s.dir }
func (s *Server) Dispatcher() *Dispatcher      { return s.disp }
func (s *Server) Store() storage.Store         { return s.store }
func (s *Server) NodeID() string               { return s.cfg.NodeID }

// Run starts the background liveness monitor.
func (s *Server) Run() { s.monitor.Start() }

// Shutdown stops the monitor and tears down every live connection.
func (s *Server) Shutdown(ctx context.Context) {
	s.monitor.Stop()
	for _, c := range s.dir.All() {
		s.closeClient(ctx, c)
	}
	s.fanout.Close()
}

// HandleWS is the gin handler for GET /ws. The auth gate runs before the
// upgrade: a missing or invalid token is rejected with 401 and the
// connection never reaches the session directory.
func (s *Server) HandleWS(c *gin.Context) {
	token := bearerToken(c.Request)
	userID, err := security.Verify(s.cfg.JWT, token)
	if err != nil {
		logger.Infof("[gateway] auth reject remote=%s err=%v", c.Request.RemoteAddr, err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrAuthFailed)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[gateway] upgrade err remote=%s err=%v", c.Request.RemoteAddr, err)
		return
	}

	client := NewClient(ids.GenerateString(), userID, ws, s.cfg.SendQueueSize)
	safe.Go(client.writePump)

	ctx := context.Background()
	becameOnline := s.dir.Register(client)
	if err := s.store.InsertSession(ctx, userID, client.ConnID); err != nil {
		logger.Warnf("[gateway] session log insert user=%s conn=%s err=%v", userID, client.ConnID, err)
	}
	if becameOnline {
		s.presence.UserOnline(ctx, userID)
	}

	client.EnqueueEvent(NewEvent(EvtConnection, map[string]string{
		"status":  "connected",
		"connId":  client.ConnID,
		"nodeId":  s.cfg.NodeID,
		"message": "welcome",
	}))

	logger.Infof("[gateway] connected user=%s conn=%s total=%d", userID, client.ConnID, s.dir.Len())

	s.readLoop(client)
	s.closeClient(ctx, client)
}

func (s *Server) readLoop(client *Client) {
	for {
		mt, data, err := client.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[gateway] peer closed conn=%s err=%v", client.ConnID, err)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[gateway] read timeout conn=%s err=%v", client.ConnID, err)
			} else {
				logger.Infof("[gateway] read err conn=%s err=%v", client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		evt, perr := ParseEvent(data)
		if perr != nil {
			client.EnqueueEvent(NewErrorEvent("invalid message format"))
			continue
		}

		if err := s.disp.Dispatch(&Context{S: s}, evt, client); err != nil {
			if errs.ErrUnknownEvent.Is(err) {
				client.EnqueueEvent(NewErrorEvent("unknown message type: " + evt.Type))
				continue
			}
			// handler errors are local to this connection
			logger.Infof("[gateway] handler err conn=%s type=%s err=%v", client.ConnID, evt.Type, err)
		}
	}
}

// closeClient runs the single teardown path: deregister, deactivate the
// session row, publish offline on last connection, close the socket. The
// closed flag makes it safe to call from both the read loop exit and the
// liveness monitor.
func (s *Server) closeClient(ctx context.Context, client *Client) {
	if !client.markClosed() {
		return
	}
	_, becameOffline := s.dir.Deregister(client.ConnID)
	if err := s.store.DeactivateSession(ctx, client.ConnID); err != nil {
		logger.Warnf("[gateway] session log deactivate conn=%s err=%v", client.ConnID, err)
	}
	if becameOffline {
		s.presence.UserOffline(ctx, client.UserID)
	}
	logger.Infof("[gateway] disconnected user=%s conn=%s total=%d", client.UserID, client.ConnID, s.dir.Len())
}

// Evict force-closes a dead connection; the liveness monitor's path into
// the same teardown as a voluntary disconnect.
func (s *Server) Evict(client *Client) {
	logger.Infof("[gateway] evict dead conn=%s user=%s", client.ConnID, client.UserID)
	_ = client.ws.Close()
	s.closeClient(context.Background(), client)
}

// SendToUser fans an event out to every live connection of a user.
// Reports whether at least one connection existed.
func (s *Server) SendToUser(userID string, e *Event) bool {
	conns := s.dir.Lookup(userID)
	if len(conns) == 0 {
		return false
	}
	s.fanout.Broadcast(conns, e)
	return true
}

// SendToRoom fans an event out to a room's delivery set.
func (s *Server) SendToRoom(roomID string, e *Event) {
	s.fanout.Broadcast(s.dir.RoomMembers(roomID), e)
}

// BroadcastExceptUser sends to every connection not owned by the subject.
func (s *Server) BroadcastExceptUser(subjectUserID string, e *Event) {
	s.fanout.Broadcast(s.dir.AllExceptUser(subjectUserID), e)
}

func bearerToken(r *http.Request) string {
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
