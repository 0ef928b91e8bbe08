// Package widget holds the timer-driven storefront widgets: the farm carousel
// and the flavour auto-slider.
package widget

import (
	"sync"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, f func()) Timer

// AfterFunc implements Scheduler.
func (fn SchedulerFunc) AfterFunc(d time.Duration, f func()) Timer { return fn(d, f) }

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc.
func RealScheduler() Scheduler { return realScheduler{} }

// Serialized wraps a scheduler so every callback runs while holding lock.
// Widgets belonging to one page share the page lock this way.
func Serialized(base Scheduler, lock sync.Locker) Scheduler {
	if base == nil {
		base = RealScheduler()
	}
	if lock == nil {
		return base
	}
	return SchedulerFunc(func(d time.Duration, f func()) Timer {
		return base.AfterFunc(d, func() {
			lock.Lock()
			defer lock.Unlock()
			f()
		})
	})
}

// timerSlot owns at most one pending timer. Arming stops the previous one and
// bumps the generation so a callback that already fired but is still waiting
// for a lock can tell it is stale.
type timerSlot struct {
	sched Scheduler
	timer Timer
	gen   uint64
}

func (s *timerSlot) arm(d time.Duration, fire func(gen uint64)) {
	s.stop()
	gen := s.gen
	s.timer = s.sched.AfterFunc(d, func() { fire(gen) })
}

func (s *timerSlot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// claim reports whether gen is the live timer and clears it if so.
func (s *timerSlot) claim(gen uint64) bool {
	if gen != s.gen || s.timer == nil {
		return false
	}
	s.timer = nil
	return true
}

func (s *timerSlot) pending() bool { return s.timer != nil }
