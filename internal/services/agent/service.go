package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tokenherald/pkg/logx"
)

type Service struct {
	mu   sync.Mutex
	cfg  Config
	deps Deps
	log  logx.Logger

	c         *cron.Cron
	runCtx    context.Context
	runCancel context.CancelFunc
	stopCh    chan struct{}
	stopDone  chan struct{}

	// tick overlap guard
	tickMu     sync.Mutex
	tickActive bool

	seen *dedup
}

func New(cfg Config, deps Deps) *Service {
	cfg = cfg.withDefaults()
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:  cfg,
		deps: deps,
		log:  log.With(logx.String("service", "agent")),
		seen: newDedup(cfg.DedupSize),
	}
}

// Running reports whether the scan loop is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCh != nil && s.stopDone == nil
}

// Start launches the scan loop: one immediate tick, then one tick per
// interval. Starting an already-running service is a logged no-op.
func (s *Service) Start(ctx context.Context) error {
	// If a Stop() is in progress, wait for it to finish first.
	for {
		s.mu.Lock()
		if s.stopCh == nil {
			break
		}
		done := s.stopDone
		if done == nil {
			s.mu.Unlock()
			s.log.Warn("start requested but already running")
			return nil
		}
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.stopCh = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	runCtx := s.runCtx
	s.c = cron.New()
	if _, err := s.c.AddFunc(fmt.Sprintf("@every %s", s.cfg.Interval), func() {
		s.tick(runCtx, "schedule")
	}); err != nil {
		s.runCancel()
		s.c = nil
		s.stopCh = nil
		s.mu.Unlock()
		return fmt.Errorf("schedule scan: %w", err)
	}
	s.c.Start()
	interval := s.cfg.Interval
	s.mu.Unlock()

	s.deps.Status.SetRunning(true)
	s.log.Info("scan loop started", logx.Duration("interval", interval))

	// First tick fires now, not an interval from now. The cron entry
	// is already armed; the overlap guard covers the window where both
	// could trigger.
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in initial tick", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			}
		}()
		s.tick(runCtx, "startup")
	}()
	return nil
}

// Stop halts the scan loop. An in-flight tick finishes on its own
// deadline; Stop returns when the loop is down or ctx expires.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		s.log.Warn("stop requested but not running")
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	done := make(chan struct{})
	s.stopDone = done
	stopCh := s.stopCh
	cancel := s.runCancel
	c := s.c
	s.c = nil
	s.runCancel = nil
	s.mu.Unlock()

	close(stopCh)
	if cancel != nil {
		cancel()
	}

	go func() {
		if c != nil {
			<-c.Stop().Done()
		}
		s.mu.Lock()
		s.stopCh = nil
		s.runCtx = nil
		s.stopDone = nil
		s.mu.Unlock()
		close(done)
		s.log.Info("scan loop stopped", logx.Duration("took", time.Since(start)))
	}()

	s.deps.Status.SetRunning(false)
	select {
	case <-done:
	case <-ctx.Done():
		// stop continues in background
	}
}

// ForceScan runs one tick immediately, outside the schedule. The
// overlap guard still applies.
func (s *Service) ForceScan(ctx context.Context) {
	s.tick(ctx, "manual")
}

// Apply swaps in new settings at runtime. An interval change restarts
// the cron entry; everything else takes effect on the next tick.
func (s *Service) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	var oldCron *cron.Cron
	if cfg.Interval != old.Interval && s.c != nil {
		runCtx := s.runCtx
		c := cron.New()
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.Interval), func() {
			s.tick(runCtx, "schedule")
		}); err != nil {
			s.mu.Unlock()
			s.log.Error("reschedule scan", logx.Err(err))
			return
		}
		oldCron = s.c
		s.c = c
		c.Start()
	}
	s.mu.Unlock()

	// Drain the old schedule outside the lock; a tick that is still
	// running reads config through the same mutex.
	if oldCron != nil {
		<-oldCron.Stop().Done()
	}

	s.seen.Resize(cfg.DedupSize)
	if oldCron != nil {
		s.log.Info("scan interval changed",
			logx.Duration("old", old.Interval), logx.Duration("new", cfg.Interval))
	}
}

func (s *Service) config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// beginTick claims the single tick slot; false means one is in flight.
func (s *Service) beginTick() bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if s.tickActive {
		return false
	}
	s.tickActive = true
	return true
}

func (s *Service) endTick() {
	s.tickMu.Lock()
	s.tickActive = false
	s.tickMu.Unlock()
}
