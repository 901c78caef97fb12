package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/artdiscover/artdiscover-server/internal/service"
	"github.com/artdiscover/artdiscover-server/internal/viewer"
)

func (s *Server) registerViewerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getViewer",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/viewer",
		Summary:     "Get viewer state",
		Description: "Returns the image inspector's open state and zoom transform",
		Tags:        []string{"Viewer"},
	}, s.handleGetViewer)

	huma.Register(s.api, huma.Operation{
		OperationID: "openViewer",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/viewer/open",
		Summary:     "Open image",
		Description: "Shows an image at scale 1, centered",
		Tags:        []string{"Viewer"},
	}, s.handleOpenViewer)

	huma.Register(s.api, huma.Operation{
		OperationID: "clickViewer",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/viewer/click",
		Summary:     "Zoom click",
		Description: "Zooms in, or out with the modifier held, anchored at the click point; at scale 4 or more any click resets to 1",
		Tags:        []string{"Viewer"},
	}, s.handleClickViewer)

	huma.Register(s.api, huma.Operation{
		OperationID: "closeViewer",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/viewer/close",
		Summary:     "Close image",
		Description: "Hides the image inspector",
		Tags:        []string{"Viewer"},
	}, s.handleCloseViewer)
}

// === DTOs ===

// ViewerResponse is the inspector state.
type ViewerResponse struct {
	Open    bool    `json:"open" doc:"An image is shown"`
	URL     string  `json:"url,omitempty" doc:"Shown image URL"`
	Scale   float64 `json:"scale" doc:"Zoom scale between 1 and 5"`
	OriginX float64 `json:"originX" doc:"Transform origin, percent of width"`
	OriginY float64 `json:"originY" doc:"Transform origin, percent of height"`
	Cursor  string  `json:"cursor" doc:"Pointer hint without the modifier: zoom-in or zoom-out"`
}

// ViewerOutput wraps the viewer response for Huma.
type ViewerOutput struct {
	Body ViewerResponse
}

// OpenViewerRequest is the request body for opening an image.
type OpenViewerRequest struct {
	URL string `json:"url" validate:"required,http_url" doc:"Image URL"`
}

// OpenViewerInput wraps the open request for Huma.
type OpenViewerInput struct {
	ID   string `path:"id" doc:"Session id"`
	Body OpenViewerRequest
}

// RectRequest is the rendered image box in client coordinates.
type RectRequest struct {
	Left   float64 `json:"left" doc:"Left edge"`
	Top    float64 `json:"top" doc:"Top edge"`
	Width  float64 `json:"width" doc:"Rendered width"`
	Height float64 `json:"height" doc:"Rendered height"`
}

// ClickViewerRequest is one click on the image.
type ClickViewerRequest struct {
	X        float64     `json:"x" doc:"Click x in client coordinates"`
	Y        float64     `json:"y" doc:"Click y in client coordinates"`
	Rect     RectRequest `json:"rect" doc:"Rendered image box"`
	Modifier bool        `json:"modifier,omitempty" doc:"Zoom-out modifier held"`
}

// ClickViewerInput wraps the click request for Huma.
type ClickViewerInput struct {
	ID   string `path:"id" doc:"Session id"`
	Body ClickViewerRequest
}

// === Handlers ===

func (s *Server) handleGetViewer(_ context.Context, input *SessionIDInput) (*ViewerOutput, error) {
	st, err := s.services.Sessions.ViewerState(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ViewerOutput{Body: toViewerResponse(st)}, nil
}

func (s *Server) handleOpenViewer(_ context.Context, input *OpenViewerInput) (*ViewerOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toHumaError(err)
	}
	st, err := s.services.Sessions.OpenViewer(input.ID, input.Body.URL)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ViewerOutput{Body: toViewerResponse(st)}, nil
}

func (s *Server) handleClickViewer(_ context.Context, input *ClickViewerInput) (*ViewerOutput, error) {
	r := input.Body.Rect
	st, err := s.services.Sessions.ClickViewer(input.ID, service.ViewerClick{
		X:        input.Body.X,
		Y:        input.Body.Y,
		Rect:     viewer.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height},
		Modifier: input.Body.Modifier,
	})
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ViewerOutput{Body: toViewerResponse(st)}, nil
}

func (s *Server) handleCloseViewer(_ context.Context, input *SessionIDInput) (*ViewerOutput, error) {
	st, err := s.services.Sessions.CloseViewer(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ViewerOutput{Body: toViewerResponse(st)}, nil
}

func toViewerResponse(st viewer.State) ViewerResponse {
	return ViewerResponse{
		Open:    st.Open,
		URL:     st.URL,
		Scale:   st.Scale,
		OriginX: st.OriginX,
		OriginY: st.OriginY,
		Cursor:  st.Cursor(false),
	}
}
