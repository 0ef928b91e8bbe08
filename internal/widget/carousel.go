package widget

import (
	"sync"
	"time"
)

// DefaultCarouselInterval is the auto-advance period of the farm carousel.
const DefaultCarouselInterval = 5 * time.Second

// CarouselOptions configures a Carousel.
type CarouselOptions struct {
	Interval  time.Duration
	Scheduler Scheduler
}

// Carousel cycles through a fixed number of slides. Manual selection does not
// reset the auto-advance period.
type Carousel struct {
	mu       sync.Mutex
	count    int
	index    int
	interval time.Duration
	running  bool
	slot     timerSlot
}

// NewCarousel builds a stopped carousel showing slide 0.
func NewCarousel(count int, opts CarouselOptions) *Carousel {
	if count < 0 {
		count = 0
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultCarouselInterval
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}
	return &Carousel{
		count:    count,
		interval: opts.Interval,
		slot:     timerSlot{sched: opts.Scheduler},
	}
}

// Start begins auto-advancing. A carousel with fewer than two slides never
// schedules anything.
func (c *Carousel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.count < 2 {
		return
	}
	c.running = true
	c.schedule()
}

// Stop cancels auto-advance.
func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.slot.stop()
}

// Next moves to the following slide, wrapping at the end.
func (c *Carousel) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance()
	return c.index
}

// Select jumps to slide i. Out-of-range indexes are ignored.
func (c *Carousel) Select(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= c.count {
		return false
	}
	c.index = i
	return true
}

// Index is the active slide.
func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Len is the number of slides.
func (c *Carousel) Len() int { return c.count }

// Running reports whether auto-advance is active.
func (c *Carousel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Carousel) advance() {
	if c.count < 2 {
		return
	}
	c.index = (c.index + 1) % c.count
}

func (c *Carousel) schedule() {
	c.slot.arm(c.interval, c.tick)
}

func (c *Carousel) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.slot.claim(gen) || !c.running {
		return
	}
	c.advance()
	c.schedule()
}
