// Package viewer implements the click-zoom inspection surface for one image.
package viewer

import (
	"errors"
	"math"
	"sync"
)

// Scale limits and steps.
const (
	MinScale    = 1.0
	MaxScale    = 5.0
	ResetAt     = 4.0
	ZoomInStep  = 0.2
	ZoomOutStep = 0.5

	centerOrigin = 50.0
)

// Cursor hints for the image under the pointer.
const (
	CursorZoomIn  = "zoom-in"
	CursorZoomOut = "zoom-out"
)

// ErrNotOpen is returned by Click while no image is shown.
var ErrNotOpen = errors.New("viewer: no image open")

// ErrNoImage is returned by Open for an empty url.
var ErrNoImage = errors.New("viewer: image url is empty")

// Rect is the rendered bounding box of the image in client coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// State is the transform applied to the open image.
// OriginX and OriginY are percentages of the rendered rect.
type State struct {
	Open    bool    `json:"open"`
	URL     string  `json:"url,omitempty"`
	Scale   float64 `json:"scale"`
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
}

// Cursor returns the pointer hint for the state and modifier.
func (s State) Cursor(modifier bool) string {
	if s.Scale >= ResetAt || (modifier && s.Scale > MinScale) {
		return CursorZoomOut
	}
	return CursorZoomIn
}

func closedState() State {
	return State{Scale: MinScale, OriginX: centerOrigin, OriginY: centerOrigin}
}

// Viewer holds the zoom state. It is safe for concurrent use.
type Viewer struct {
	mu    sync.Mutex
	state State
}

// New returns a closed viewer.
func New() *Viewer {
	return &Viewer{state: closedState()}
}

// State returns the current transform.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Open shows url at scale 1, centered.
func (v *Viewer) Open(url string) (State, error) {
	if url == "" {
		return v.State(), ErrNoImage
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = closedState()
	v.state.Open = true
	v.state.URL = url
	return v.state, nil
}

// Close hides the image. Closing a closed viewer is a no-op.
func (v *Viewer) Close() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = closedState()
	return v.state
}

// Click applies one click at client position (x, y).
//
// At or above ResetAt any click returns to scale 1. Otherwise a modified
// click zooms out by ZoomOutStep and a plain click zooms in by ZoomInStep.
// Every click that does not reset moves the origin under the cursor, even
// a zoom out that is already floored at MinScale.
func (v *Viewer) Click(x, y float64, rect Rect, modifier bool) (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.state.Open {
		return v.state, ErrNotOpen
	}

	prev := v.state.Scale
	if prev >= ResetAt {
		v.state.Scale = MinScale
		return v.state, nil
	}

	next := prev + ZoomInStep
	if modifier {
		next = prev - ZoomOutStep
	}
	next = clamp(round1(next), MinScale, MaxScale)
	v.state.Scale = next

	if rect.Width > 0 && rect.Height > 0 {
		v.state.OriginX = (x - rect.Left) / rect.Width * 100
		v.state.OriginY = (y - rect.Top) / rect.Height * 100
	}
	return v.state, nil
}

// round1 rounds to one decimal so repeated steps land on exact values.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
