package board

import (
	"sync"
	"time"

	"github.com/rodri-oliveira/atendeja/internal/order"
)

const (
	// DefaultPollInterval is the refresh cadence when the config does not
	// override it.
	DefaultPollInterval = 100 * time.Second
	// QuietWindow suppresses the poll briefly after a filter change or a
	// mutation, so the tick cannot race a refetch already in flight.
	QuietWindow = 5 * time.Second
	// ResumeWindow is the short breather after a manual refresh or after
	// the drawer closes.
	ResumeWindow = 2 * time.Second
	// DrawerWindow parks the poll while a detail drawer may stay open.
	DrawerWindow = time.Minute
)

// Scheduler arbitrates between the periodic list refresh and user-triggered
// work. It never fetches anything itself; the owner asks ShouldPoll on each
// tick and performs the fetch when told to.
type Scheduler struct {
	mu         sync.Mutex
	now        func() time.Time
	interval   time.Duration
	pauseUntil time.Time
	selected   order.ID
}

// SchedulerOption customizes scheduler construction.
type SchedulerOption func(*Scheduler)

// WithClock lets tests control time.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInterval overrides the poll cadence.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewScheduler builds a scheduler with the default cadence.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		now:      time.Now,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Interval returns the poll cadence for the owner's timer.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// ShouldPoll reports whether the current tick may issue a list fetch. Ticks
// are skipped while a drawer is open or inside a pause window.
func (s *Scheduler) ShouldPoll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != "" {
		return false
	}
	return !s.now().Before(s.pauseUntil)
}

// PauseFor pushes the pause deadline to now+d. A shorter d never shrinks an
// existing window.
func (s *Scheduler) PauseFor(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseFor(d)
}

func (s *Scheduler) pauseFor(d time.Duration) {
	deadline := s.now().Add(d)
	if deadline.After(s.pauseUntil) {
		s.pauseUntil = deadline
	}
}

// Select records the drawer target and parks the poll for the long window.
// At most one order is selected at a time.
func (s *Scheduler) Select(id order.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
	s.pauseFor(DrawerWindow)
}

// Deselect clears the drawer target and collapses the pause to the short
// resume window. The owner is expected to refetch immediately afterwards.
func (s *Scheduler) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
	s.pauseUntil = s.now().Add(ResumeWindow)
}

// Selected returns the order whose drawer is open, or "".
func (s *Scheduler) Selected() order.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}
