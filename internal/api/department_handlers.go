package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	domainerrors "github.com/artdiscover/artdiscover-server/internal/errors"
)

func (s *Server) registerDepartmentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listDepartments",
		Method:      http.MethodGet,
		Path:        "/api/v1/departments",
		Summary:     "List department filters",
		Description: "Returns the department bar: All first, then the catalogue in display order",
		Tags:        []string{"Departments"},
	}, s.handleListDepartments)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDepartment",
		Method:      http.MethodGet,
		Path:        "/api/v1/departments/{slug}",
		Summary:     "Get department filter",
		Description: "Resolves a department slug, or \"all\", to its filter id",
		Tags:        []string{"Departments"},
	}, s.handleGetDepartment)
}

// DepartmentResponse is one filter button.
type DepartmentResponse struct {
	ID   int    `json:"id" doc:"Department id, 0 for All"`
	Name string `json:"name" doc:"Display name"`
	Slug string `json:"slug" doc:"URL-safe slug"`
}

// ListDepartmentsOutput wraps the department list for Huma.
type ListDepartmentsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Departments []DepartmentResponse `json:"departments" doc:"Filter buttons"`
	}
}

// GetDepartmentInput addresses one filter button by slug.
type GetDepartmentInput struct {
	Slug string `path:"slug" maxLength:"100" doc:"Department slug, e.g. asian-art"`
}

// DepartmentOutput wraps one department for Huma.
type DepartmentOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         DepartmentResponse
}

func (s *Server) handleGetDepartment(_ context.Context, input *GetDepartmentInput) (*DepartmentOutput, error) {
	d, ok := domain.LookupDepartmentSlug(input.Slug)
	if !ok {
		return nil, toHumaError(domainerrors.NotFoundf("department %q not found", input.Slug))
	}
	return &DepartmentOutput{
		CacheControl: CacheOneDay,
		Body:         DepartmentResponse{ID: d.ID, Name: d.Name, Slug: d.Slug},
	}, nil
}

func (s *Server) handleListDepartments(_ context.Context, _ *struct{}) (*ListDepartmentsOutput, error) {
	options := domain.FilterOptions()

	out := &ListDepartmentsOutput{CacheControl: CacheOneDay}
	out.Body.Departments = make([]DepartmentResponse, len(options))
	for i, d := range options {
		out.Body.Departments[i] = DepartmentResponse{ID: d.ID, Name: d.Name, Slug: d.Slug}
	}
	return out, nil
}
