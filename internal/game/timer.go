package game

import (
	"sync"
	"time"
)

// TimerKind names one of the room's cancellable timers.
type TimerKind string

const (
	TimerWordAutoPick   TimerKind = "word-auto-pick"
	TimerDrawTick       TimerKind = "draw-tick"
	TimerHintReveal     TimerKind = "hint-reveal"
	TimerRoundAdvance   TimerKind = "round-advance"
	TimerStartGameDelay TimerKind = "start-game-delay"
)

// TimerFired is posted back into the Room's serial event stream when an
// armed timer expires. Kind+Epoch let the Round controller recognize and
// drop fires that belong to a phase it has already left.
type TimerFired struct {
	Kind  TimerKind
	Epoch uint64
}

// Scheduler arms and cancels the named timers for one room. Arm/Cancel are
// only ever called from the Room's single event-loop goroutine, so the
// bookkeeping maps need no lock. Fires that were already queued in the
// room's inbox when their kind was cancelled or re-armed fail the Valid
// check, since both operations advance the kind's epoch.
type Scheduler struct {
	post   func(TimerFired)
	epochs map[TimerKind]uint64
	stops  map[TimerKind]func()
}

// NewScheduler builds a Scheduler that posts fires through post. post must
// be non-blocking-safe to call from arbitrary goroutines (i.e. a channel
// send into the room's inbox).
func NewScheduler(post func(TimerFired)) *Scheduler {
	return &Scheduler{
		post:   post,
		epochs: make(map[TimerKind]uint64),
		stops:  make(map[TimerKind]func()),
	}
}

// Arm schedules a one-shot fire of kind after d, cancelling any previous
// timer of the same kind first.
func (s *Scheduler) Arm(kind TimerKind, d time.Duration) {
	s.Cancel(kind)
	s.epochs[kind]++
	epoch := s.epochs[kind]
	t := time.AfterFunc(d, func() {
		s.post(TimerFired{Kind: kind, Epoch: epoch})
	})
	s.stops[kind] = func() { t.Stop() }
}

// ArmRepeating schedules a recurring fire of kind every d, cancelling any
// previous timer of the same kind first.
func (s *Scheduler) ArmRepeating(kind TimerKind, d time.Duration) {
	s.Cancel(kind)
	s.epochs[kind]++
	epoch := s.epochs[kind]

	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				s.post(TimerFired{Kind: kind, Epoch: epoch})
			case <-done:
				return
			}
		}
	}()

	s.stops[kind] = func() {
		ticker.Stop()
		once.Do(func() { close(done) })
	}
}

// Cancel stops kind's active timer, if any, and invalidates any fire of it
// already in flight.
func (s *Scheduler) Cancel(kind TimerKind) {
	if stop, ok := s.stops[kind]; ok {
		stop()
		delete(s.stops, kind)
		s.epochs[kind]++
	}
}

// CancelAll stops every active timer. Called on every transition out of a
// timed phase, before any new timers are armed.
func (s *Scheduler) CancelAll() {
	for kind := range s.stops {
		s.Cancel(kind)
	}
}

// Valid reports whether a fired timer still belongs to the current
// generation of its kind. A fire from a cancelled or re-armed timer must be
// treated as a no-op by the caller.
func (s *Scheduler) Valid(fired TimerFired) bool {
	return s.epochs[fired.Kind] == fired.Epoch
}
