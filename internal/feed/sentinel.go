package feed

import "sync/atomic"

// Viewport is a geometry scroll signal.
type Viewport struct {
	// Midpoints holds the vertical midpoint of each rendered item of the most
	// recent batch, in batch order, relative to the viewport top.
	Midpoints []float64 `json:"midpoints"`
	// Height is the viewport height in the same unit.
	Height float64 `json:"height"`
}

// Sentinel is the prefetch policy plus the in-flight guard.
//
// A fetch is due once the second item of the most recent batch scrolls past
// the middle of the viewport. Nothing is due while a fetch is in flight,
// during initial loading, after the feed is exhausted, or while the last
// batch has fewer than two items.
type Sentinel struct {
	inFlight atomic.Bool
}

// TryAcquire sets the in-flight flag. It reports false if it was already set.
func (s *Sentinel) TryAcquire() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// Release clears the in-flight flag.
func (s *Sentinel) Release() {
	s.inFlight.Store(false)
}

// InFlight reports whether a fetch holds the flag.
func (s *Sentinel) InFlight() bool {
	return s.inFlight.Load()
}

// ShouldFetch evaluates a geometry signal against the feed state.
func (s *Sentinel) ShouldFetch(st State, vp Viewport) bool {
	if !s.armed(st) || len(vp.Midpoints) < 2 {
		return false
	}
	return vp.Midpoints[1] < vp.Height/2
}

// ShouldFetchAt evaluates a progress signal: the index, in the whole feed, of
// the last item the presentation layer shows.
func (s *Sentinel) ShouldFetchAt(st State, lastVisibleIndex int) bool {
	if !s.armed(st) {
		return false
	}
	return lastVisibleIndex >= st.LastBatchStart+1
}

func (s *Sentinel) armed(st State) bool {
	return !s.InFlight() && !st.LoadingInitial && !st.Exhausted && st.LastBatchLen >= 2
}
