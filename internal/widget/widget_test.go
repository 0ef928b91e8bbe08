package widget_test

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/GreyDragonEnt/Gelatomessina/internal/testutil"
	"github.com/GreyDragonEnt/Gelatomessina/internal/widget"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCarouselAdvancesAndWraps(t *testing.T) {
	clock := testutil.NewManualClock()
	c := widget.NewCarousel(4, widget.CarouselOptions{Scheduler: clock})
	c.Start()

	clock.Advance(4 * time.Second)
	if got := c.Index(); got != 0 {
		t.Fatalf("advanced early: index %d", got)
	}
	clock.Advance(time.Second)
	if got := c.Index(); got != 1 {
		t.Fatalf("expected slide 1 after 5s, got %d", got)
	}
	clock.Advance(15 * time.Second)
	if got := c.Index(); got != 0 {
		t.Fatalf("expected wrap to slide 0, got %d", got)
	}
	if clock.Pending() != 1 {
		t.Fatalf("expected exactly one pending timer, got %d", clock.Pending())
	}
}

func TestCarouselSelectAndStop(t *testing.T) {
	clock := testutil.NewManualClock()
	c := widget.NewCarousel(4, widget.CarouselOptions{Scheduler: clock, Interval: time.Second})
	c.Start()
	c.Start()
	if clock.Pending() != 1 {
		t.Fatalf("double start must not stack timers, got %d", clock.Pending())
	}

	if !c.Select(2) || c.Index() != 2 {
		t.Fatalf("select 2 failed")
	}
	if c.Select(4) || c.Select(-1) {
		t.Fatalf("out of range selects should be ignored")
	}
	if c.Index() != 2 {
		t.Fatalf("ignored select changed index to %d", c.Index())
	}
	clock.Advance(time.Second)
	if c.Index() != 3 {
		t.Fatalf("expected advance from the selected slide, got %d", c.Index())
	}

	c.Stop()
	if clock.Pending() != 0 || c.Running() {
		t.Fatalf("stop should cancel the timer")
	}
	clock.Advance(time.Minute)
	if c.Index() != 3 {
		t.Fatalf("stopped carousel moved to %d", c.Index())
	}
	if got := c.Next(); got != 0 {
		t.Fatalf("manual next should still wrap, got %d", got)
	}
}

func TestCarouselSingleSlideNeverAdvances(t *testing.T) {
	clock := testutil.NewManualClock()
	c := widget.NewCarousel(1, widget.CarouselOptions{Scheduler: clock})
	c.Start()
	if clock.Pending() != 0 {
		t.Fatalf("single slide carousel scheduled a timer")
	}
	if c.Next() != 0 {
		t.Fatalf("single slide carousel moved")
	}
}

func newSlider(max int) (*widget.Slider, *testutil.ManualClock) {
	clock := testutil.NewManualClock()
	return widget.NewSlider(max, widget.SliderOptions{Scheduler: clock}), clock
}

func TestSliderBouncesWithDwell(t *testing.T) {
	s, clock := newSlider(3)
	s.Start()

	clock.Advance(2999 * time.Millisecond)
	if s.State().Position != 0 {
		t.Fatalf("slid before the start delay")
	}
	clock.Advance(time.Millisecond)
	if st := s.State(); st.Position != 1 || !st.Sliding {
		t.Fatalf("expected first step, got %+v", st)
	}

	clock.Advance(60 * time.Millisecond)
	st := s.State()
	if st.Position != 3 || st.Direction != -1 || st.Sliding {
		t.Fatalf("expected dwell at max, got %+v", st)
	}

	clock.Advance(1999 * time.Millisecond)
	if s.State().Position != 3 {
		t.Fatalf("left the end before the dwell elapsed")
	}
	clock.Advance(time.Millisecond)
	if s.State().Position != 2 {
		t.Fatalf("expected reverse step, got %+v", s.State())
	}
	clock.Advance(60 * time.Millisecond)
	st = s.State()
	if st.Position != 0 || st.Direction != 1 {
		t.Fatalf("expected dwell at zero, got %+v", st)
	}
	s.Stop()
	if clock.Pending() != 0 {
		t.Fatalf("stop left %d timers", clock.Pending())
	}
}

func TestSliderHoverAndLeave(t *testing.T) {
	s, clock := newSlider(100)
	s.Start()
	clock.Advance(3 * time.Second)

	s.Hover()
	if s.Pending() || !s.State().Paused {
		t.Fatalf("hover should pause and cancel work")
	}
	clock.Advance(10 * time.Second)
	if s.State().Position != 1 {
		t.Fatalf("paused slider moved to %d", s.State().Position)
	}

	s.Leave()
	s.Leave()
	if clock.Pending() != 1 {
		t.Fatalf("repeated leave should keep a single timer, got %d", clock.Pending())
	}
	clock.Advance(499 * time.Millisecond)
	if s.State().Position != 1 {
		t.Fatalf("resumed before the resume delay")
	}
	clock.Advance(time.Millisecond)
	if s.State().Position != 2 {
		t.Fatalf("expected resume step, got %d", s.State().Position)
	}

	s.Hover()
	s.Leave()
	s.Hover()
	clock.Advance(time.Second)
	if s.State().Position != 2 {
		t.Fatalf("hover after leave should cancel the resume")
	}
	s.Stop()
}

func TestSliderResizeAndScroll(t *testing.T) {
	s, clock := newSlider(10)
	s.Scroll(50)
	if s.State().Position != 10 {
		t.Fatalf("manual scroll should clamp to max, got %d", s.State().Position)
	}
	s.Resize(4)
	if s.State().Position != 4 {
		t.Fatalf("resize should clamp, got %d", s.State().Position)
	}
	s.Resize(-5)
	if st := s.State(); st.Max != 0 || st.Position != 0 {
		t.Fatalf("negative resize should clamp to zero, got %+v", st)
	}

	s.Resize(10)
	s.Start()
	clock.Advance(3 * time.Second)
	before := s.State().Position
	s.Scroll(8)
	if s.State().Position != before {
		t.Fatalf("manual scroll applied while sliding")
	}
	s.Stop()
}

func TestSliderWithoutOverflowNeverSlides(t *testing.T) {
	s, clock := newSlider(0)
	s.Start()
	clock.Advance(time.Minute)
	if st := s.State(); st.Sliding || st.Position != 0 {
		t.Fatalf("slider without overflow moved: %+v", st)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending work")
	}
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestSerializedRunsCallbacksUnderLock(t *testing.T) {
	clock := testutil.NewManualClock()
	lock := &countingLocker{}
	c := widget.NewCarousel(3, widget.CarouselOptions{
		Interval:  time.Second,
		Scheduler: widget.Serialized(clock, lock),
	})
	c.Start()
	clock.Advance(3 * time.Second)
	if lock.locks != 3 {
		t.Fatalf("expected 3 locked callbacks, got %d", lock.locks)
	}
	c.Stop()
}

func TestRealSchedulerStopsCleanly(t *testing.T) {
	c := widget.NewCarousel(3, widget.CarouselOptions{Interval: 5 * time.Millisecond})
	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for c.Index() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()
	if c.Index() == 0 {
		t.Fatalf("carousel never advanced on the real clock")
	}
}
