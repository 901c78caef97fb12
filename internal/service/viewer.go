package service

import (
	"errors"

	domainerrors "github.com/artdiscover/artdiscover-server/internal/errors"
	"github.com/artdiscover/artdiscover-server/internal/viewer"
)

// ViewerClick is one click on the open image.
type ViewerClick struct {
	X        float64
	Y        float64
	Rect     viewer.Rect
	Modifier bool
}

// ViewerState returns a session's viewer transform.
func (s *SessionService) ViewerState(sessionID string) (viewer.State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return viewer.State{}, err
	}
	return sess.Viewer.State(), nil
}

// OpenViewer shows url in a session's viewer.
func (s *SessionService) OpenViewer(sessionID, url string) (viewer.State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return viewer.State{}, err
	}
	st, err := sess.Viewer.Open(url)
	if err != nil {
		return st, domainerrors.Validation("image url is required").WithCause(err)
	}
	return st, nil
}

// ClickViewer applies a zoom click.
func (s *SessionService) ClickViewer(sessionID string, click ViewerClick) (viewer.State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return viewer.State{}, err
	}
	st, err := sess.Viewer.Click(click.X, click.Y, click.Rect, click.Modifier)
	if errors.Is(err, viewer.ErrNotOpen) {
		return st, domainerrors.Conflict("no image is open").WithCause(err)
	}
	return st, err
}

// CloseViewer hides the image.
func (s *SessionService) CloseViewer(sessionID string) (viewer.State, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return viewer.State{}, err
	}
	return sess.Viewer.Close(), nil
}
