package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/feed"
	"github.com/artdiscover/artdiscover-server/internal/service"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Create feed session",
		Description:   "Creates a feed for one tab and starts its initial load in the background",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/feed",
		Summary:     "Get feed",
		Description: "Returns the accumulated feed, selection and loading state",
		Tags:        []string{"Sessions"},
	}, s.handleGetFeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectDepartment",
		Method:      http.MethodPut,
		Path:        "/api/v1/sessions/{id}/selection",
		Summary:     "Select department",
		Description: "Replaces the selection, empties the feed and starts a new initial load",
		Tags:        []string{"Sessions"},
	}, s.handleSelectDepartment)

	huma.Register(s.api, huma.Operation{
		OperationID: "reportScroll",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/scroll",
		Summary:     "Report scroll position",
		Description: "Feeds a geometry or progress signal to the prefetch sentinel",
		Tags:        []string{"Sessions"},
	}, s.handleScroll)

	huma.Register(s.api, huma.Operation{
		OperationID: "loadMore",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/more",
		Summary:     "Load next batch",
		Description: "Fetches the next batch and waits for it",
		Tags:        []string{"Sessions"},
	}, s.handleLoadMore)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetFeed",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/reset",
		Summary:     "Reset feed",
		Description: "Empties the feed under the current selection and reloads",
		Tags:        []string{"Sessions"},
	}, s.handleResetFeed)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Delete session",
		Description: "Ends the session, canceling its fetch and closing its event streams",
		Tags:        []string{"Sessions"},
	}, s.handleDeleteSession)
}

// === DTOs ===

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// ArtworkResponse is one feed card.
type ArtworkResponse struct {
	ObjectID          int    `json:"objectID" doc:"Collection object id"`
	PrimaryImage      string `json:"primaryImage" doc:"Full-size image URL"`
	PrimaryImageSmall string `json:"primaryImageSmall" doc:"Thumbnail URL"`
	Title             string `json:"title" doc:"Object title"`
	ArtistDisplayName string `json:"artistDisplayName,omitempty" doc:"Artist as recorded"`
	ObjectDate        string `json:"objectDate,omitempty" doc:"Date as recorded"`
	ObjectURL         string `json:"objectURL" doc:"Collection page URL"`
	Department        string `json:"department" doc:"Department name"`
	Artist            string `json:"artist" doc:"Artist or Unknown Artist"`
	Date              string `json:"date" doc:"Date or Unknown Date"`
	Placeholder       string `json:"placeholder,omitempty" doc:"BlurHash of the thumbnail"`
}

// FeedResponse is a session's feed state.
type FeedResponse struct {
	SessionID      string            `json:"sessionId" doc:"Session id"`
	Epoch          uint64            `json:"epoch" doc:"Feed generation; bumps on every reset"`
	Departments    []int             `json:"departments" doc:"Selected department ids, [0] for All"`
	Items          []ArtworkResponse `json:"items" doc:"Accumulated artworks in display order"`
	Total          int               `json:"total" doc:"Number of items"`
	LastBatchStart int               `json:"lastBatchStart" doc:"Index of the first item of the latest batch"`
	LastBatchLen   int               `json:"lastBatchLen" doc:"Size of the latest batch"`
	LoadingInitial bool              `json:"loadingInitial" doc:"First batch of the epoch is loading"`
	LoadingMore    bool              `json:"loadingMore" doc:"A further batch is loading"`
	Exhausted      bool              `json:"exhausted" doc:"The selection has nothing displayable left"`
	LastOutcome    string            `json:"lastOutcome,omitempty" enum:"complete,exhausted,truncated" doc:"Why the latest batch stopped; truncated means the upstream failed too often and loadMore or reset may be retried"`
}

// FeedOutput wraps the feed response for Huma.
type FeedOutput struct {
	Body FeedResponse
}

// SessionIDInput addresses one session.
type SessionIDInput struct {
	ID string `path:"id" doc:"Session id"`
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	DepartmentID int `json:"departmentId,omitempty" validate:"department" doc:"Initial department, 0 for All"`
}

// CreateSessionInput wraps the create session request for Huma.
type CreateSessionInput struct {
	Body *CreateSessionRequest `required:"false"`
}

// SessionResponse describes a new session.
type SessionResponse struct {
	ID        string       `json:"id" doc:"Session id"`
	CreatedAt time.Time    `json:"createdAt" doc:"Creation time"`
	Events    string       `json:"events" doc:"Event stream path"`
	Feed      FeedResponse `json:"feed" doc:"Feed state at creation"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// SelectDepartmentRequest is the request body for a department button press.
type SelectDepartmentRequest struct {
	DepartmentID int `json:"departmentId" validate:"department" doc:"Department id, 0 for All"`
}

// SelectDepartmentInput wraps the selection request for Huma.
type SelectDepartmentInput struct {
	ID   string `path:"id" doc:"Session id"`
	Body SelectDepartmentRequest
}

// ViewportRequest is a geometry scroll signal.
type ViewportRequest struct {
	Midpoints []float64 `json:"midpoints" doc:"Vertical midpoints of the latest batch's items, relative to the viewport top"`
	Height    float64   `json:"height" validate:"gt=0" doc:"Viewport height"`
}

// ScrollRequest carries exactly one scroll signal.
type ScrollRequest struct {
	Viewport         *ViewportRequest `json:"viewport,omitempty" doc:"Geometry signal"`
	LastVisibleIndex *int             `json:"lastVisibleIndex,omitempty" validate:"omitempty,gte=0" doc:"Progress signal: index of the last visible item"`
}

// ScrollInput wraps the scroll request for Huma.
type ScrollInput struct {
	ID   string `path:"id" doc:"Session id"`
	Body ScrollRequest
}

// ScrollOutput reports whether a batch fetch started.
type ScrollOutput struct {
	Body struct {
		Started bool `json:"started" doc:"A batch fetch was started"`
	}
}

// BatchResponse is one fetched batch.
type BatchResponse struct {
	ID       string            `json:"id" doc:"Batch id"`
	Epoch    uint64            `json:"epoch" doc:"Epoch the batch was fetched for"`
	Outcome  string            `json:"outcome" doc:"complete, exhausted, truncated or canceled"`
	Applied  bool              `json:"applied" doc:"The batch was appended to the feed"`
	Attempts int               `json:"attempts" doc:"Lookups made"`
	Rejected int               `json:"rejected" doc:"Candidates rejected"`
	Items    []ArtworkResponse `json:"items" doc:"Accepted artworks"`
}

// BatchOutput wraps the batch response for Huma.
type BatchOutput struct {
	Body BatchResponse
}

// === Handlers ===

func (s *Server) handleCreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	var req CreateSessionRequest
	if input.Body != nil {
		req = *input.Body
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, toHumaError(err)
	}

	sess, err := s.services.Sessions.Create(ctx, req.DepartmentID)
	if err != nil {
		return nil, toHumaError(err)
	}

	return &SessionOutput{
		Body: SessionResponse{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			Events:    "/api/v1/sessions/" + sess.ID + "/events",
			Feed:      toFeedResponse(sess.ID, sess.Feed.Snapshot()),
		},
	}, nil
}

func (s *Server) handleGetFeed(_ context.Context, input *SessionIDInput) (*FeedOutput, error) {
	snap, err := s.services.Sessions.Snapshot(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &FeedOutput{Body: toFeedResponse(input.ID, snap)}, nil
}

func (s *Server) handleSelectDepartment(_ context.Context, input *SelectDepartmentInput) (*FeedOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toHumaError(err)
	}
	snap, err := s.services.Sessions.SelectDepartment(input.ID, input.Body.DepartmentID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &FeedOutput{Body: toFeedResponse(input.ID, snap)}, nil
}

func (s *Server) handleScroll(_ context.Context, input *ScrollInput) (*ScrollOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toHumaError(err)
	}

	sig := service.ScrollSignal{LastVisibleIndex: input.Body.LastVisibleIndex}
	if vp := input.Body.Viewport; vp != nil {
		sig.Viewport = &feed.Viewport{Midpoints: vp.Midpoints, Height: vp.Height}
	}

	started, err := s.services.Sessions.Scroll(input.ID, sig)
	if err != nil {
		return nil, toHumaError(err)
	}

	out := &ScrollOutput{}
	out.Body.Started = started
	return out, nil
}

func (s *Server) handleLoadMore(ctx context.Context, input *SessionIDInput) (*BatchOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, loadMoreTimeout)
	defer cancel()

	b, applied, err := s.services.Sessions.LoadMore(ctx, input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &BatchOutput{
		Body: BatchResponse{
			ID:       b.ID,
			Epoch:    b.Epoch,
			Outcome:  string(b.Outcome),
			Applied:  applied,
			Attempts: b.Attempts,
			Rejected: b.Rejected,
			Items:    toArtworkResponses(b.Items),
		},
	}, nil
}

func (s *Server) handleResetFeed(_ context.Context, input *SessionIDInput) (*FeedOutput, error) {
	snap, err := s.services.Sessions.Reset(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &FeedOutput{Body: toFeedResponse(input.ID, snap)}, nil
}

func (s *Server) handleDeleteSession(_ context.Context, input *SessionIDInput) (*MessageOutput, error) {
	if err := s.services.Sessions.Delete(input.ID); err != nil {
		return nil, toHumaError(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Session deleted"}}, nil
}

// === Mappers ===

func toFeedResponse(sessionID string, snap feed.Snapshot) FeedResponse {
	return FeedResponse{
		SessionID:      sessionID,
		Epoch:          snap.Epoch,
		Departments:    snap.Selection.IDs(),
		Items:          toArtworkResponses(snap.Items),
		Total:          snap.Len,
		LastBatchStart: snap.LastBatchStart,
		LastBatchLen:   snap.LastBatchLen,
		LoadingInitial: snap.LoadingInitial,
		LoadingMore:    snap.LoadingMore,
		Exhausted:      snap.Exhausted,
		LastOutcome:    string(snap.LastOutcome),
	}
}

func toArtworkResponses(items []domain.Artwork) []ArtworkResponse {
	out := make([]ArtworkResponse, len(items))
	for i := range items {
		a := &items[i]
		out[i] = ArtworkResponse{
			ObjectID:          a.ObjectID,
			PrimaryImage:      a.PrimaryImage,
			PrimaryImageSmall: a.PrimaryImageSmall,
			Title:             a.Title,
			ArtistDisplayName: a.ArtistDisplayName,
			ObjectDate:        a.ObjectDate,
			ObjectURL:         a.ObjectURL,
			Department:        a.Department,
			Artist:            a.DisplayArtist(),
			Date:              a.DisplayDate(),
			Placeholder:       a.Placeholder,
		}
	}
	return out
}
