package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"openproject-gateway-go/internal/model"
)

// defaultOpenStatusFilter is injected into global work package listings when
// the caller supplies no filters at all. An explicitly empty filter list
// suppresses it.
var defaultOpenStatusFilter = Filter{
	"status_id": Condition{Operator: "o", Values: nil},
}

// ViewWorkPackageInput retrieves a work package; the response carries the
// lockVersion needed for subsequent updates. Timestamps enable baseline
// comparison.
type ViewWorkPackageInput struct {
	WorkPackageID int      `json:"work_package_id"`
	Timestamps    []string `json:"timestamps"`
}

func shapeViewWorkPackage(in ViewWorkPackageInput) (*model.Descriptor, error) {
	q := make(url.Values)
	if in.Timestamps != nil {
		q.Set("timestamps", strings.Join(in.Timestamps, ","))
	}
	return &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/work_packages/%d", in.WorkPackageID),
		Query:  q,
	}, nil
}

// ViewWorkPackage retrieves a single work package.
func (g *Gateway) ViewWorkPackage(ctx context.Context, in ViewWorkPackageInput) *model.Result {
	d, err := shapeViewWorkPackage(in)
	return g.run(ctx, d, err)
}

// CreateWorkPackageInput creates a work package inside a project.
// Relationship ids become link objects; Notify defaults to true.
type CreateWorkPackageInput struct {
	ProjectID     int     `json:"project_id"`
	Subject       string  `json:"subject"`
	Description   *string `json:"description"`
	TypeID        *int    `json:"type_id"`
	PriorityID    *int    `json:"priority_id"`
	StatusID      *int    `json:"status_id"`
	AssigneeID    *int    `json:"assignee_id"`
	StartDate     *string `json:"start_date"`
	DueDate       *string `json:"due_date"`
	EstimatedTime *string `json:"estimated_time"`
	Notify        *bool   `json:"notify"`
}

func shapeCreateWorkPackage(in CreateWorkPackageInput) (*model.Descriptor, error) {
	if in.Subject == "" {
		return nil, fmt.Errorf("work package subject is required")
	}

	body := map[string]any{"subject": in.Subject}
	if in.Description != nil {
		body["description"] = model.Raw(*in.Description)
	}
	if in.StartDate != nil {
		body["startDate"] = *in.StartDate
	}
	if in.DueDate != nil {
		body["dueDate"] = *in.DueDate
	}
	if in.EstimatedTime != nil {
		body["estimatedTime"] = *in.EstimatedTime
	}
	if links := workPackageLinks(in.TypeID, in.PriorityID, in.StatusID, in.AssigneeID); len(links) > 0 {
		body["_links"] = links
	}

	return &model.Descriptor{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/projects/%d/work_packages", in.ProjectID),
		Query:  notifyQuery(in.Notify),
		Body:   body,
	}, nil
}

// CreateWorkPackage creates a work package.
func (g *Gateway) CreateWorkPackage(ctx context.Context, in CreateWorkPackageInput) *model.Result {
	d, err := shapeCreateWorkPackage(in)
	return g.run(ctx, d, err)
}

// ListWorkPackagesInput lists work packages across all projects. A nil
// Filters gets the default open-status filter prepended; an explicitly empty
// slice sends no filters at all.
type ListWorkPackagesInput struct {
	Filters Filters `json:"filters"`
}

func shapeListWorkPackages(in ListWorkPackagesInput) (*model.Descriptor, error) {
	var effective Filters
	switch {
	case in.Filters == nil:
		effective = Filters{defaultOpenStatusFilter}
	case len(in.Filters) == 0:
		effective = Filters{}
	default:
		effective = append(Filters{defaultOpenStatusFilter}, in.Filters...)
	}

	filters, err := EncodeFilters(effective)
	if err != nil {
		return nil, err
	}
	sortBy, err := EncodeSortBy(SortBy{{"id", "asc"}})
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"offset":     {"1"},
		"pageSize":   {"20"},
		"filters":    {filters},
		"sortBy":     {sortBy},
		"showSums":   {"false"},
		"timestamps": {"PT0S"},
	}
	return &model.Descriptor{Method: http.MethodGet, Path: "/work_packages", Query: q}, nil
}

// ListWorkPackages retrieves the global work package collection.
func (g *Gateway) ListWorkPackages(ctx context.Context, in ListWorkPackagesInput) *model.Result {
	d, err := shapeListWorkPackages(in)
	return g.run(ctx, d, err)
}

// UpdateWorkPackageInput partially updates a work package. LockVersion is the
// optimistic-concurrency token from the last read and is mandatory: the
// upstream rejects any update without it, so the shaper refuses locally
// rather than waste the round trip.
type UpdateWorkPackageInput struct {
	WorkPackageID  int     `json:"work_package_id"`
	LockVersion    *int    `json:"lock_version"`
	Subject        *string `json:"subject"`
	Description    *string `json:"description"`
	PercentageDone *int    `json:"percentage_done"`
	TypeID         *int    `json:"type_id"`
	PriorityID     *int    `json:"priority_id"`
	StatusID       *int    `json:"status_id"`
	AssigneeID     *int    `json:"assignee_id"`
	StartDate      *string `json:"start_date"`
	DueDate        *string `json:"due_date"`
	EstimatedTime  *string `json:"estimated_time"`
	Notify         *bool   `json:"notify"`
}

func shapeUpdateWorkPackage(in UpdateWorkPackageInput) (*model.Descriptor, error) {
	if in.LockVersion == nil {
		return nil, fmt.Errorf("lock_version is required: read the work package first and echo its lockVersion")
	}

	body := map[string]any{"lockVersion": *in.LockVersion}
	if in.Subject != nil {
		body["subject"] = *in.Subject
	}
	if in.PercentageDone != nil {
		body["percentageDone"] = *in.PercentageDone
	}
	if in.StartDate != nil {
		body["startDate"] = *in.StartDate
	}
	if in.DueDate != nil {
		body["dueDate"] = *in.DueDate
	}
	if in.EstimatedTime != nil {
		body["estimatedTime"] = *in.EstimatedTime
	}
	if in.Description != nil {
		body["description"] = model.Raw(*in.Description)
	}
	if links := workPackageLinks(in.TypeID, in.PriorityID, in.StatusID, in.AssigneeID); len(links) > 0 {
		body["_links"] = links
	}

	return &model.Descriptor{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/work_packages/%d", in.WorkPackageID),
		Query:  notifyQuery(in.Notify),
		Body:   body,
	}, nil
}

// UpdateWorkPackage partially updates a work package under optimistic locking.
func (g *Gateway) UpdateWorkPackage(ctx context.Context, in UpdateWorkPackageInput) *model.Result {
	d, err := shapeUpdateWorkPackage(in)
	return g.run(ctx, d, err)
}

// CommentWorkPackageInput adds a comment to a work package's activity stream.
type CommentWorkPackageInput struct {
	WorkPackageID int    `json:"work_package_id"`
	CommentText   string `json:"comment_text"`
	Notify        *bool  `json:"notify"`
}

func shapeCommentWorkPackage(in CommentWorkPackageInput) (*model.Descriptor, error) {
	if in.CommentText == "" {
		return nil, fmt.Errorf("comment text is required")
	}
	return &model.Descriptor{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/work_packages/%d/activities", in.WorkPackageID),
		Query:  notifyQuery(in.Notify),
		Body: map[string]any{
			"_type":   "Comment",
			"comment": model.Raw(in.CommentText),
		},
	}, nil
}

// CommentWorkPackage posts a comment to a work package.
func (g *Gateway) CommentWorkPackage(ctx context.Context, in CommentWorkPackageInput) *model.Result {
	d, err := shapeCommentWorkPackage(in)
	return g.run(ctx, d, err)
}

// WorkPackageRefInput identifies a work package for its sub-collections.
type WorkPackageRefInput struct {
	WorkPackageID int `json:"work_package_id"`
}

// WorkPackageActivities retrieves the activity history of a work package.
func (g *Gateway) WorkPackageActivities(ctx context.Context, in WorkPackageRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/work_packages/%d/activities", in.WorkPackageID),
	}, nil)
}

// WorkPackageAvailableAssignees retrieves users assignable to a work package.
func (g *Gateway) WorkPackageAvailableAssignees(ctx context.Context, in WorkPackageRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/work_packages/%d/available_assignees", in.WorkPackageID),
	}, nil)
}

// workPackageLinks assembles the _links object for relationship updates.
// Every relationship is expressed as a synthesized href, never a bare id.
func workPackageLinks(typeID, priorityID, statusID, assigneeID *int) map[string]any {
	links := map[string]any{}
	if typeID != nil {
		links["type"] = model.TypeLink(*typeID)
	}
	if priorityID != nil {
		links["priority"] = model.PriorityLink(*priorityID)
	}
	if statusID != nil {
		links["status"] = model.StatusLink(*statusID)
	}
	if assigneeID != nil {
		links["assignee"] = model.UserLink(*assigneeID)
	}
	return links
}
