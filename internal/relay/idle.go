package relay

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const idleLeaveTimeout = 10 * time.Second

// WatchIdle leaves voice once the idle debouncer fires while connected and
// not playing. It returns immediately when idle auto-leave is disabled.
func (r *Relay) WatchIdle() {
	idle := r.opts.Idle
	if idle == nil {
		return
	}
	r.watchOnce.Do(func() {
		done := make(chan struct{})
		r.mu.Lock()
		r.watchDone = done
		r.mu.Unlock()
		go r.watch(done)
	})
}

func (r *Relay) watch(done chan struct{}) {
	defer close(done)
	idle := r.opts.Idle
	for {
		select {
		case <-r.quit:
			return
		case <-idle.C():
		}

		r.mu.Lock()
		idleNow := r.conn != nil && r.playback == nil && !r.starting
		r.mu.Unlock()
		if !idleNow {
			continue
		}

		r.logger.Info("Leaving voice channel after inactivity", zap.Duration("idle_timeout", idle.Duration()))
		ctx, cancel := context.WithTimeout(context.Background(), idleLeaveTimeout)
		if err := r.Leave(ctx); err != nil && !errors.Is(err, ErrNotConnected) {
			r.logger.Warn("Idle leave failed", zap.Error(err))
		}
		cancel()
	}
}

func (r *Relay) stopWatching() {
	r.mu.Lock()
	select {
	case <-r.quit:
	default:
		close(r.quit)
	}
	done := r.watchDone
	r.mu.Unlock()

	if done != nil {
		<-done
	}
	if r.opts.Idle != nil {
		r.opts.Idle.Stop()
	}
}

// armIdle starts the idle countdown. Caller holds r.mu.
func (r *Relay) armIdle() {
	if r.opts.Idle != nil {
		r.opts.Idle.Reset()
	}
}

// disarmIdle cancels the idle countdown. Caller holds r.mu.
func (r *Relay) disarmIdle() {
	if r.opts.Idle != nil {
		r.opts.Idle.Disarm()
	}
}
