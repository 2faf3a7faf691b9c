package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var order []int

	c.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	c.Advance(2 * time.Second)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order after 2s = %v, want [1 2]", order)
	}

	c.Advance(time.Second)
	if len(order) != 3 || order[2] != 3 {
		t.Fatalf("order after 3s = %v, want [1 2 3]", order)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestFake_NowDuringCallback(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewFake(start)
	var seen time.Time

	c.AfterFunc(time.Second, func() { seen = c.Now() })
	c.Advance(5 * time.Second)

	if !seen.Equal(start.Add(time.Second)) {
		t.Errorf("Now() inside callback = %v, want %v", seen, start.Add(time.Second))
	}
	if !c.Now().Equal(start.Add(5 * time.Second)) {
		t.Errorf("Now() after Advance = %v, want %v", c.Now(), start.Add(5*time.Second))
	}
}

func TestFake_Rescheduling(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var ticks int

	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(5 * time.Second)
	if ticks != 5 {
		t.Errorf("ticks = %d, want 5", ticks)
	}
}

func TestFake_Stop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var fired bool

	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Error("Stop() on pending timer should return true")
	}
	if timer.Stop() {
		t.Error("second Stop() should return false")
	}

	c.Advance(time.Hour)
	if fired {
		t.Error("stopped timer should not fire")
	}
}

func TestReal_AfterFunc(t *testing.T) {
	var fired atomic.Bool
	done := make(chan struct{})

	Real{}.AfterFunc(10*time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
	if !fired.Load() {
		t.Error("callback should have run")
	}
}
