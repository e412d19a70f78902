package gateway

import (
	"sync"
	"time"

	"github.com/ideatoapp/chatgateway/logger"
)

// LivenessMonitor probes every tracked connection on a fixed interval. A
// connection that did not answer the previous probe is evicted through the
// same teardown path as a voluntary disconnect; survivors are marked
// awaiting-response and probed again. This is the only mechanism that
// reclaims connections whose transport died without a close frame.
type LivenessMonitor struct {
	srv      *Server
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewLivenessMonitor(srv *Server, interval time.Duration) *LivenessMonitor {
	return &LivenessMonitor{
		srv:      srv,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (m *LivenessMonitor) Start() {
	go m.loop()
}

func (m *LivenessMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *LivenessMonitor) loop() {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			m.sweepOnce()
		}
	}
}

func (m *LivenessMonitor) sweepOnce() {
	for _, c := range m.srv.Directory().All() {
		if !c.alive.Load() {
			m.srv.Evict(c)
			continue
		}
		c.alive.Store(false)
		if err := c.ping(); err != nil {
			logger.Infof("[liveness] ping err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
			m.srv.Evict(c)
		}
	}
}
