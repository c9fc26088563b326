package board

import "time"

const (
	DefaultScrollEdge = 80
	DefaultScrollStep = 12
	DefaultFrameRate  = 16 * time.Millisecond
)

// FrameScheduler runs a callback once on the next frame.
type FrameScheduler interface {
	Request(fn func()) (handle int)
	Cancel(handle int)
}

// Viewport is the horizontally scrollable region holding the stage columns.
type Viewport interface {
	// Bounds returns the left and right edges of the visible region.
	Bounds() (left, right int)
	ScrollBy(delta int)
}

// AutoScroller scrolls the viewport while a dragged card hovers near one of
// its edges. At most one frame is pending at a time.
type AutoScroller struct {
	Edge int
	Step int

	frames   FrameScheduler
	view     Viewport
	pending  int
	hasFrame bool
}

func NewAutoScroller(frames FrameScheduler, view Viewport) *AutoScroller {
	return &AutoScroller{
		Edge:   DefaultScrollEdge,
		Step:   DefaultScrollStep,
		frames: frames,
		view:   view,
	}
}

// Delta is the scroll offset for a pointer at x: -Step within Edge of the
// left edge, +Step within Edge of the right edge, 0 elsewhere.
func (a *AutoScroller) Delta(x int) int {
	left, right := a.view.Bounds()
	switch {
	case x-left < a.Edge:
		return -a.Step
	case right-x < a.Edge:
		return a.Step
	default:
		return 0
	}
}

// DragOver is called for every pointer movement during a drag. Any pending
// frame is cancelled; a new one is scheduled when x sits in an edge zone.
func (a *AutoScroller) DragOver(x int) {
	a.Stop()
	delta := a.Delta(x)
	if delta == 0 {
		return
	}
	a.hasFrame = true
	a.pending = a.frames.Request(func() {
		a.hasFrame = false
		a.view.ScrollBy(delta)
	})
}

// Stop cancels the pending frame, if any.
func (a *AutoScroller) Stop() {
	if !a.hasFrame {
		return
	}
	a.frames.Cancel(a.pending)
	a.hasFrame = false
}

func (a *AutoScroller) Pending() bool { return a.hasFrame }
