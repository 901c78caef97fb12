package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/favorites"
)

func (s *Server) registerFavoritesRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites",
		Summary:     "List favorites",
		Description: "Returns saved artworks, optionally filtered by a title or artist query",
		Tags:        []string{"Favorites"},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/favorites/toggle",
		Summary:     "Toggle favorite",
		Description: "Saves the artwork if absent, removes it if present. Without storage consent nothing is written and nudge is set",
		Tags:        []string{"Favorites"},
	}, s.handleToggleFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/favorites/{objectID}",
		Summary:     "Remove favorite",
		Description: "Removes a saved artwork",
		Tags:        []string{"Favorites"},
	}, s.handleRemoveFavorite)
}

// === DTOs ===

// FavoriteResponse is one saved artwork.
type FavoriteResponse struct {
	ObjectID          int    `json:"objectID" doc:"Collection object id"`
	PrimaryImageSmall string `json:"primaryImageSmall" doc:"Thumbnail URL"`
	Title             string `json:"title" doc:"Object title"`
	ObjectURL         string `json:"objectURL" doc:"Collection page URL"`
	ArtistDisplayName string `json:"artistDisplayName" doc:"Artist as recorded"`
}

// ListFavoritesInput is the favorites query.
type ListFavoritesInput struct {
	Query string `query:"q" maxLength:"200" doc:"Title or artist filter"`
}

// FavoritesListResponse is the favorites shortlist.
type FavoritesListResponse struct {
	Favorites []FavoriteResponse `json:"favorites" doc:"Saved artworks in save order"`
	Total     int                `json:"total" doc:"Number of returned favorites"`
}

// FavoritesListOutput wraps the favorites list for Huma.
type FavoritesListOutput struct {
	Body FavoritesListResponse
}

// ToggleFavoriteRequest is the request body for a heart press.
type ToggleFavoriteRequest struct {
	SessionID         string `json:"sessionId,omitempty" doc:"Session to notify when consent is missing"`
	ObjectID          int    `json:"objectID" validate:"gt=0" doc:"Collection object id"`
	PrimaryImageSmall string `json:"primaryImageSmall,omitempty" doc:"Thumbnail URL"`
	Title             string `json:"title,omitempty" validate:"max=1000" doc:"Object title"`
	ObjectURL         string `json:"objectURL,omitempty" doc:"Collection page URL"`
	ArtistDisplayName string `json:"artistDisplayName,omitempty" validate:"max=1000" doc:"Artist as recorded"`
}

// ToggleFavoriteInput wraps the toggle request for Huma.
type ToggleFavoriteInput struct {
	Body ToggleFavoriteRequest
}

// RemoveFavoriteInput addresses one saved artwork.
type RemoveFavoriteInput struct {
	ObjectID  int    `path:"objectID" minimum:"1" doc:"Collection object id"`
	SessionID string `query:"sessionId" doc:"Session to notify when consent is missing"`
}

// ToggleResponse is the outcome of a favorites mutation.
type ToggleResponse struct {
	Nudge bool `json:"nudge" doc:"Consent is missing and nothing was written"`
	Saved bool `json:"saved" doc:"The artwork is saved after the call"`
	Count int  `json:"count" doc:"Number of saved artworks"`
}

// ToggleOutput wraps the toggle response for Huma.
type ToggleOutput struct {
	Body ToggleResponse
}

// === Handlers ===

func (s *Server) handleListFavorites(ctx context.Context, input *ListFavoritesInput) (*FavoritesListOutput, error) {
	entries, err := s.services.Favorites.List(ctx, input.Query)
	if err != nil {
		return nil, toHumaError(err)
	}

	resp := make([]FavoriteResponse, len(entries))
	for i, e := range entries {
		resp[i] = toFavoriteResponse(e)
	}
	return &FavoritesListOutput{
		Body: FavoritesListResponse{Favorites: resp, Total: len(resp)},
	}, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *ToggleFavoriteInput) (*ToggleOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toHumaError(err)
	}

	req := input.Body
	res, err := s.services.Favorites.Toggle(ctx, req.SessionID, domain.FavoriteEntry{
		ObjectID:          req.ObjectID,
		PrimaryImageSmall: req.PrimaryImageSmall,
		Title:             req.Title,
		ObjectURL:         req.ObjectURL,
		ArtistDisplayName: req.ArtistDisplayName,
	})
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ToggleOutput{Body: toToggleResponse(res)}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *RemoveFavoriteInput) (*ToggleOutput, error) {
	res, err := s.services.Favorites.Remove(ctx, input.SessionID, input.ObjectID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &ToggleOutput{Body: toToggleResponse(res)}, nil
}

// === Mappers ===

func toFavoriteResponse(e domain.FavoriteEntry) FavoriteResponse {
	return FavoriteResponse{
		ObjectID:          e.ObjectID,
		PrimaryImageSmall: e.PrimaryImageSmall,
		Title:             e.Title,
		ObjectURL:         e.ObjectURL,
		ArtistDisplayName: e.ArtistDisplayName,
	}
}

func toToggleResponse(r favorites.ToggleResult) ToggleResponse {
	return ToggleResponse{Nudge: r.Nudge, Saved: r.Saved, Count: r.Count}
}
