package safe

import (
	"github.com/ideatoapp/chatgateway/logger"
)

// Go starts a goroutine that recovers from panic, so a misbehaving
// handler can't take the whole gateway down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
