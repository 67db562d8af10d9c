package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"openproject-gateway-go/internal/model"
)

// CreateProjectInput creates a new project. Public defaults to true when
// omitted, matching the upstream default.
type CreateProjectInput struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	Identifier        *string `json:"identifier"`
	Public            *bool   `json:"public"`
	StatusExplanation *string `json:"status_explanation"`
}

func shapeCreateProject(in CreateProjectInput) (*model.Descriptor, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	public := true
	if in.Public != nil {
		public = *in.Public
	}
	body := map[string]any{
		"name":   in.Name,
		"public": public,
		"active": true,
		"_type":  "Project",
	}
	if in.Identifier != nil {
		body["identifier"] = *in.Identifier
	}
	if in.Description != nil {
		body["description"] = model.Markdown(*in.Description)
	}
	if in.StatusExplanation != nil {
		body["statusExplanation"] = model.Markdown(*in.StatusExplanation)
	}

	return &model.Descriptor{Method: http.MethodPost, Path: "/projects", Body: body}, nil
}

// CreateProject creates a project.
func (g *Gateway) CreateProject(ctx context.Context, in CreateProjectInput) *model.Result {
	d, err := shapeCreateProject(in)
	return g.run(ctx, d, err)
}

// ViewProjectInput identifies a project by numeric id.
type ViewProjectInput struct {
	ProjectID int `json:"project_id"`
}

func shapeViewProject(in ViewProjectInput) (*model.Descriptor, error) {
	return &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/projects/%d", in.ProjectID),
	}, nil
}

// ViewProject retrieves a single project.
func (g *Gateway) ViewProject(ctx context.Context, in ViewProjectInput) *model.Result {
	d, err := shapeViewProject(in)
	return g.run(ctx, d, err)
}

// ListProjectsInput lists all visible projects.
type ListProjectsInput struct{}

// ListProjects retrieves the project collection.
func (g *Gateway) ListProjects(ctx context.Context, _ ListProjectsInput) *model.Result {
	return g.run(ctx, &model.Descriptor{Method: http.MethodGet, Path: "/projects"}, nil)
}

// UpdateProjectInput updates only the fields that are present.
type UpdateProjectInput struct {
	ProjectID         int     `json:"project_id"`
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Identifier        *string `json:"identifier"`
	Public            *bool   `json:"public"`
	Active            *bool   `json:"active"`
	StatusExplanation *string `json:"status_explanation"`
}

func shapeUpdateProject(in UpdateProjectInput) (*model.Descriptor, error) {
	body := map[string]any{}
	if in.Name != nil {
		body["name"] = *in.Name
	}
	if in.Identifier != nil {
		body["identifier"] = *in.Identifier
	}
	if in.Public != nil {
		body["public"] = *in.Public
	}
	if in.Active != nil {
		body["active"] = *in.Active
	}
	if in.Description != nil {
		body["description"] = model.Raw(*in.Description)
	}
	if in.StatusExplanation != nil {
		body["statusExplanation"] = model.Raw(*in.StatusExplanation)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("no update fields provided; specify at least one field to change")
	}

	return &model.Descriptor{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/projects/%d", in.ProjectID),
		Body:   body,
	}, nil
}

// UpdateProject partially updates a project.
func (g *Gateway) UpdateProject(ctx context.Context, in UpdateProjectInput) *model.Result {
	d, err := shapeUpdateProject(in)
	return g.run(ctx, d, err)
}

// ViewProjectStatusInput identifies a project status; the upstream accepts
// numeric ids and string identifiers here.
type ViewProjectStatusInput struct {
	StatusID string `json:"status_id"`
}

func shapeViewProjectStatus(in ViewProjectStatusInput) (*model.Descriptor, error) {
	if in.StatusID == "" {
		return nil, fmt.Errorf("status id is required")
	}
	return &model.Descriptor{
		Method: http.MethodGet,
		Path:   "/project_statuses/" + url.PathEscape(in.StatusID),
	}, nil
}

// ViewProjectStatus retrieves a project status definition.
func (g *Gateway) ViewProjectStatus(ctx context.Context, in ViewProjectStatusInput) *model.Result {
	d, err := shapeViewProjectStatus(in)
	return g.run(ctx, d, err)
}

// ProjectWorkPackagesInput lists work packages within one project.
type ProjectWorkPackagesInput struct {
	ProjectID int      `json:"project_id"`
	Offset    *int     `json:"offset"`
	PageSize  *int     `json:"page_size"`
	Filters   Filters  `json:"filters"`
	SortBy    SortBy   `json:"sort_by"`
	GroupBy   *string  `json:"group_by"`
	ShowSums  *bool    `json:"show_sums"`
	Select    []string `json:"select"`
}

func shapeProjectWorkPackages(in ProjectWorkPackagesInput) (*model.Descriptor, error) {
	q := make(url.Values)
	if in.Offset != nil {
		q.Set("offset", strconv.Itoa(*in.Offset))
	}
	if in.PageSize != nil {
		q.Set("pageSize", strconv.Itoa(*in.PageSize))
	}
	if in.Filters != nil {
		encoded, err := EncodeFilters(in.Filters)
		if err != nil {
			return nil, err
		}
		q.Set("filters", encoded)
	}
	if in.SortBy != nil {
		encoded, err := EncodeSortBy(in.SortBy)
		if err != nil {
			return nil, err
		}
		q.Set("sortBy", encoded)
	}
	if in.GroupBy != nil {
		q.Set("groupBy", *in.GroupBy)
	}
	if in.ShowSums != nil {
		q.Set("showSums", boolString(*in.ShowSums))
	}
	if in.Select != nil {
		q.Set("select", strings.Join(in.Select, ","))
	}

	return &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/projects/%d/work_packages", in.ProjectID),
		Query:  q,
	}, nil
}

// ProjectWorkPackages retrieves the work packages of a project.
func (g *Gateway) ProjectWorkPackages(ctx context.Context, in ProjectWorkPackagesInput) *model.Result {
	d, err := shapeProjectWorkPackages(in)
	return g.run(ctx, d, err)
}

// ProjectAssigneesInput identifies the project whose assignable users to list.
type ProjectAssigneesInput struct {
	ProjectID int `json:"project_id"`
}

// ProjectAvailableAssignees retrieves users assignable within a project.
func (g *Gateway) ProjectAvailableAssignees(ctx context.Context, in ProjectAssigneesInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/projects/%d/available_assignees", in.ProjectID),
	}, nil)
}

// ListStatusesInput lists all work package statuses.
type ListStatusesInput struct{}

// ListStatuses retrieves the status collection.
func (g *Gateway) ListStatuses(ctx context.Context, _ ListStatusesInput) *model.Result {
	return g.run(ctx, &model.Descriptor{Method: http.MethodGet, Path: "/statuses"}, nil)
}
