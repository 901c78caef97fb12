package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/artdiscover/artdiscover-server/internal/store"
)

// Component and overall health states.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
	Sessions   int                        `json:"sessions" doc:"Live feed sessions"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"storage":    s.checkStorage(ctx),
		"universe":   s.checkUniverse(),
		"search":     s.checkSearchIndex(),
		"sse":        s.checkSSEManager(),
		"collection": s.checkCollection(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	sessions := 0
	if s.services != nil && s.services.Sessions != nil {
		sessions = s.services.Sessions.Count()
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
			Sessions:   sessions,
		},
	}, nil
}

// checkStorage verifies the key-value store is readable.
func (s *Server) checkStorage(ctx context.Context) ComponentHealth {
	if s.probes.Storage == nil {
		return ComponentHealth{Status: statusDegraded, Message: "storage not configured"}
	}

	start := time.Now()
	_, _, err := s.probes.Storage.GetItem(ctx, store.KeyConsent)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "storage read failed",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkUniverse reports whether the object manifest is loaded. An empty
// universe is degraded: the feed stays empty until the manifest is fixed.
func (s *Server) checkUniverse() ComponentHealth {
	if s.probes.Universe == nil {
		return ComponentHealth{Status: statusDegraded, Message: "universe not configured"}
	}
	if !s.probes.Universe.Loaded() {
		return ComponentHealth{Status: statusDegraded, Message: "manifest not loaded yet"}
	}
	n := s.probes.Universe.Len()
	if n == 0 {
		return ComponentHealth{Status: statusDegraded, Message: "manifest is empty"}
	}
	return ComponentHealth{Status: statusHealthy, Message: strconv.Itoa(n) + " objects"}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.probes.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.probes.Search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
		Message: strconv.FormatUint(docCount, 10) + " favorites indexed",
	}
}

// checkSSEManager reports the event stream fan-out.
func (s *Server) checkSSEManager() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "SSE manager not configured"}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: formatSSEStatus(s.sseManager.ClientCount()),
	}
}

// checkCollection reports how many object lookups are memoized. The upstream
// itself is not called; lookup failures only reject candidates.
func (s *Server) checkCollection() ComponentHealth {
	if s.probes.Collection == nil {
		return ComponentHealth{Status: statusHealthy, Message: "lookup cache not configured"}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: strconv.Itoa(s.probes.Collection.CachedCount()) + " cached lookups",
	}
}

func formatSSEStatus(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	default:
		return strconv.Itoa(count) + " connected clients"
	}
}
