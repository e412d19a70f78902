package gateway

import (
	"context"
	"time"

	"github.com/ideatoapp/chatgateway/logger"
	"github.com/ideatoapp/chatgateway/storage"
)

// PresencePublisher reacts to the directory's became-online/became-offline
// signals: persist the durable status, refresh the presence cache, then
// broadcast. Persistence is best-effort — a store failure is logged and
// never blocks the broadcast, because the session directory stays
// authoritative for live reachability.
type PresencePublisher struct {
	store  storage.Store
	cache  *storage.Presence // optional
	nodeID string

	broadcast func(subjectUserID string, e *Event)
}

func NewPresencePublisher(store storage.Store, cache *storage.Presence, nodeID string,
	broadcast func(subjectUserID string, e *Event)) *PresencePublisher {
	return &PresencePublisher{store: store, cache: cache, nodeID: nodeID, broadcast: broadcast}
}

func (p *PresencePublisher) UserOnline(ctx context.Context, userID string) {
	p.publish(ctx, userID, storage.StatusOnline)
}

func (p *PresencePublisher) UserOffline(ctx context.Context, userID string) {
	p.publish(ctx, userID, storage.StatusOffline)
}

func (p *PresencePublisher) publish(ctx context.Context, userID, status string) {
	now := time.Now().UTC()
	if err := p.store.UpdateUserStatus(ctx, userID, status, now); err != nil {
		logger.Errorf("[presence] persist status user=%s status=%s err=%v", userID, status, err)
	}
	if p.cache != nil {
		var err error
		if status == storage.StatusOnline {
			err = p.cache.Online(ctx, userID, p.nodeID)
		} else {
			err = p.cache.Offline(ctx, userID)
		}
		if err != nil {
			logger.Warnf("[presence] cache update user=%s status=%s err=%v", userID, status, err)
		}
	}
	p.broadcast(userID, NewStatusChangedEvent(userID, status))
}
