package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerConsentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getConsent",
		Method:      http.MethodGet,
		Path:        "/api/v1/consent",
		Summary:     "Get storage consent",
		Description: "Returns whether favorites may be persisted",
		Tags:        []string{"Consent"},
	}, s.handleGetConsent)

	huma.Register(s.api, huma.Operation{
		OperationID: "setConsent",
		Method:      http.MethodPut,
		Path:        "/api/v1/consent",
		Summary:     "Set storage consent",
		Description: "Records the consent answer. Revoking clears saved favorites",
		Tags:        []string{"Consent"},
	}, s.handleSetConsent)
}

// ConsentResponse is the consent flag.
type ConsentResponse struct {
	Consent string `json:"consent" enum:"unset,granted,denied" doc:"Consent state"`
}

// ConsentOutput wraps the consent response for Huma.
type ConsentOutput struct {
	Body ConsentResponse
}

// SetConsentInput wraps the consent answer for Huma.
type SetConsentInput struct {
	Body struct {
		Granted bool `json:"granted" doc:"Persistence allowed"`
	}
}

func (s *Server) handleGetConsent(ctx context.Context, _ *struct{}) (*ConsentOutput, error) {
	c, err := s.services.Favorites.Consent(ctx)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ConsentOutput{Body: ConsentResponse{Consent: c.String()}}, nil
}

func (s *Server) handleSetConsent(ctx context.Context, input *SetConsentInput) (*ConsentOutput, error) {
	c, err := s.services.Favorites.SetConsent(ctx, input.Body.Granted)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ConsentOutput{Body: ConsentResponse{Consent: c.String()}}, nil
}
