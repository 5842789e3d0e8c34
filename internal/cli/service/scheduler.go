package service

import (
	"context"
	"sync/atomic"
	"time"

	"BabyKeeper/internal/cli/api"
)

// SyncOnce runs one full cycle: flush the outbox, then pull the active baby.
// Push-before-pull keeps a freshly logged activity from being shadowed by a
// pull that runs first and bumps timestamps past it.
func (e *Engine) SyncOnce(ctx context.Context) error {
	pushed, st, msg := e.FlushOutbox(ctx)
	if st == api.StatusUnauthorized {
		e.events.Publish(Event{Kind: EventError, Message: "session expired, please sign in again"})
		return nil
	}
	if st != api.StatusOK {
		e.log.Debugw("outbox flush did not complete", "status", st.String(), "msg", msg)
		return nil
	}

	babyID, err := e.Entities.ActiveBaby()
	if err != nil {
		return err
	}
	applied := 0
	if babyID != "" {
		applied, st, msg = e.PullBaby(ctx, babyID)
		if st == api.StatusUnauthorized {
			e.events.Publish(Event{Kind: EventError, Message: "session expired, please sign in again"})
			return nil
		}
		if st != api.StatusOK && st != api.StatusDenied && st != api.StatusNotFound {
			e.log.Debugw("pull did not complete", "babyId", babyID, "status", st.String(), "msg", msg)
			return nil
		}
	}

	// A full server round-trip proves the credential still works; extend the
	// offline window.
	if err := e.Session.Refresh(e.cfg.SessionTTL); err != nil {
		e.log.Warnw("failed to refresh auth session", "err", err)
	}
	if pushed > 0 || applied > 0 {
		e.log.Infow("sync cycle complete", "pushed", pushed, "applied", applied)
	}
	return nil
}

// Scheduler drives periodic sync. One cycle at a time: a tick that lands
// while a cycle runs is skipped, never queued, so slow networks cannot pile
// up concurrent cycles. A cycle in progress is never cancelled mid-flight by
// the next tick; only context cancellation stops it.
type Scheduler struct {
	engine   *Engine
	interval time.Duration

	online  atomic.Bool
	running atomic.Bool
	wake    chan struct{}
}

func NewScheduler(e *Engine, interval time.Duration) *Scheduler {
	s := &Scheduler{
		engine:   e,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
	s.online.Store(true)
	return s
}

// SetOnline records connectivity. The offline-to-online edge triggers an
// immediate cycle instead of waiting out the interval.
func (s *Scheduler) SetOnline(online bool) {
	was := s.online.Swap(online)
	if !was && online {
		s.Kick()
	}
}

// Kick requests an immediate cycle (app regained focus, user hit "sync now").
// Coalesces: multiple kicks during a running cycle produce one follow-up.
func (s *Scheduler) Kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		case <-s.wake:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if !s.online.Load() {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		// Previous cycle still in flight; pending work stays in the outbox
		// for the next tick.
		return
	}
	defer s.running.Store(false)

	if err := s.engine.SyncOnce(ctx); err != nil {
		s.engine.log.Errorw("sync cycle failed", "err", err)
	}
}
