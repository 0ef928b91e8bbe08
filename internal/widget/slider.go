package widget

import (
	"sync"
	"time"
)

const (
	DefaultSliderStep         = 1
	DefaultSliderStepInterval = 30 * time.Millisecond
	DefaultSliderPause        = 2 * time.Second
	DefaultSliderResumeDelay  = 500 * time.Millisecond
	DefaultSliderStartDelay   = 3 * time.Second
)

// SliderOptions configures a Slider. Zero values take the defaults above.
type SliderOptions struct {
	Step         int
	StepInterval time.Duration
	Pause        time.Duration
	ResumeDelay  time.Duration
	StartDelay   time.Duration
	Scheduler    Scheduler
}

// SliderState is the externally visible slider position.
type SliderState struct {
	Position  int  `json:"position"`
	Max       int  `json:"max"`
	Direction int  `json:"direction"`
	Sliding   bool `json:"sliding"`
	Paused    bool `json:"paused"`
}

// Slider scrolls the flavour strip back and forth between 0 and max, dwelling
// at each end. All pending work lives in a single timer slot, so hovering,
// leaving and dwelling can never stack up parallel step chains.
type Slider struct {
	mu   sync.Mutex
	opts SliderOptions
	slot timerSlot

	pos       int
	max       int
	direction int
	sliding   bool
	paused    bool
}

// NewSlider builds an idle slider for a strip that can scroll up to max pixels.
func NewSlider(max int, opts SliderOptions) *Slider {
	if opts.Step <= 0 {
		opts.Step = DefaultSliderStep
	}
	if opts.StepInterval <= 0 {
		opts.StepInterval = DefaultSliderStepInterval
	}
	if opts.Pause <= 0 {
		opts.Pause = DefaultSliderPause
	}
	if opts.ResumeDelay <= 0 {
		opts.ResumeDelay = DefaultSliderResumeDelay
	}
	if opts.StartDelay <= 0 {
		opts.StartDelay = DefaultSliderStartDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}
	if max < 0 {
		max = 0
	}
	return &Slider{
		opts:      opts,
		slot:      timerSlot{sched: opts.Scheduler},
		max:       max,
		direction: 1,
	}
}

// Start schedules the first slide after the start delay.
func (s *Slider) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot.arm(s.opts.StartDelay, s.resumeAfter)
}

// Stop cancels all pending work.
func (s *Slider) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sliding = false
	s.slot.stop()
}

// Hover pauses sliding.
func (s *Slider) Hover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.sliding = false
	s.slot.stop()
}

// Leave resumes sliding after the resume delay unless hovered again.
func (s *Slider) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.slot.arm(s.opts.ResumeDelay, s.resumeAfter)
}

// Resize updates the scrollable extent and clamps the position to it.
func (s *Slider) Resize(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max < 0 {
		max = 0
	}
	s.max = max
	if s.pos > max {
		s.pos = max
	}
}

// Scroll syncs a manual scroll position. Ignored while sliding.
func (s *Slider) Scroll(pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sliding {
		return
	}
	s.pos = clamp(pos, 0, s.max)
}

// State returns a snapshot of the slider.
func (s *Slider) State() SliderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SliderState{
		Position:  s.pos,
		Max:       s.max,
		Direction: s.direction,
		Sliding:   s.sliding,
		Paused:    s.paused,
	}
}

// Pending reports whether a callback is scheduled.
func (s *Slider) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.pending()
}

func (s *Slider) resumeAfter(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.slot.claim(gen) || s.paused || s.max <= 0 {
		return
	}
	s.sliding = true
	s.step()
}

func (s *Slider) stepAfter(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.slot.claim(gen) {
		return
	}
	s.step()
}

func (s *Slider) step() {
	if s.paused || !s.sliding {
		return
	}
	if s.max <= 0 {
		s.sliding = false
		return
	}
	s.pos += s.direction * s.opts.Step
	switch {
	case s.pos >= s.max:
		s.pos = s.max
		s.direction = -1
		s.dwell()
	case s.pos <= 0:
		s.pos = 0
		s.direction = 1
		s.dwell()
	default:
		s.slot.arm(s.opts.StepInterval, s.stepAfter)
	}
}

func (s *Slider) dwell() {
	s.sliding = false
	s.slot.arm(s.opts.Pause, s.resumeAfter)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
