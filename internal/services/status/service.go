// Package status owns the observer-visible pipeline state.
//
// Every pipeline stage mutates it through explicit methods; observers
// get immutable snapshots, either on demand or pushed through a
// subscription. Pushes are fire-and-forget: a slow observer drops
// updates and can never block or fail the tick that produced them.
package status

import (
	"fmt"
	"sync"
	"time"

	"tokenherald/pkg/logx"
)

const defaultActivityCap = 100

type Service struct {
	mu          sync.RWMutex
	snap        Snapshot
	maxActivity int

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int

	log logx.Logger
}

func New(activityCap int, log logx.Logger) *Service {
	if activityCap <= 0 {
		activityCap = defaultActivityCap
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		maxActivity: activityCap,
		subs:        map[int]chan Snapshot{},
		log:         log,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Service) copyLocked() Snapshot {
	cp := s.snap
	cp.Activity = append([]Entry(nil), s.snap.Activity...)
	if s.snap.LastAnnouncement != nil {
		a := *s.snap.LastAnnouncement
		cp.LastAnnouncement = &a
	}
	return cp
}

// Subscribe registers an observer. The current snapshot is delivered
// immediately; every later change is pushed best-effort. The returned
// cancel func must be called to release the channel.
func (s *Service) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Snapshot, buffer)

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	ch <- s.Snapshot()

	cancel := func() {
		s.subsMu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.subsMu.Unlock()
	}
	return ch, cancel
}

func (s *Service) broadcast() {
	snap := s.Snapshot()
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		// Non-blocking: drop the update for a full observer, replace
		// its oldest buffered snapshot with the newest when possible.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// mutate applies fn under the write lock, then pushes to observers.
func (s *Service) mutate(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.mu.Unlock()
	s.broadcast()
}

func (s *Service) SetRunning(v bool) { s.mutate(func(sn *Snapshot) { sn.Running = v }) }

func (s *Service) SetStoreConnected(v bool) {
	s.mutate(func(sn *Snapshot) { sn.StoreConnected = v })
}

func (s *Service) SetChannelConnected(v bool) {
	s.mutate(func(sn *Snapshot) { sn.ChannelConnected = v })
}

func (s *Service) SetGeneratorAvailable(v bool) {
	s.mutate(func(sn *Snapshot) { sn.GeneratorAvailable = v })
}

func (s *Service) SetTokenCount(n int) { s.mutate(func(sn *Snapshot) { sn.TokenCount = n }) }

func (s *Service) ScanStarted(at time.Time) {
	s.mutate(func(sn *Snapshot) { sn.LastScan = at })
}

// RecordOutcome sets the tick result and logs it into the activity feed.
func (s *Service) RecordOutcome(outcome, detail string) {
	msg := outcome
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", outcome, detail)
	}
	s.mutate(func(sn *Snapshot) {
		sn.LastOutcome = outcome
		sn.Activity = prependEntry(sn.Activity, Entry{At: time.Now(), Level: "info", Message: msg}, s.maxActivity)
	})
}

// RecordAnnouncement registers a successful publish.
func (s *Service) RecordAnnouncement(a Announcement) {
	s.mutate(func(sn *Snapshot) {
		sn.LastOutcome = OutcomeAnnounced
		sn.AnnouncedCount++
		cp := a
		sn.LastAnnouncement = &cp
		sn.Activity = prependEntry(sn.Activity,
			Entry{At: a.At, Level: "success", Message: fmt.Sprintf("announced %s (%s)", a.Symbol, a.PublishID)},
			s.maxActivity)
	})
}

// Log appends a line to the activity feed without touching outcomes.
func (s *Service) Log(level, message string) {
	s.mutate(func(sn *Snapshot) {
		sn.Activity = prependEntry(sn.Activity, Entry{At: time.Now(), Level: level, Message: message}, s.maxActivity)
	})
}

func prependEntry(list []Entry, e Entry, limit int) []Entry {
	list = append([]Entry{e}, list...)
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
