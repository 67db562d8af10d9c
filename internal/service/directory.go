package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"openproject-gateway-go/internal/model"
)

// ListGroupsInput lists groups visible to the credential.
type ListGroupsInput struct {
	SortBy  SortBy   `json:"sort_by"`
	Select  []string `json:"select"`
	Filters Filters  `json:"filters"`
}

func shapeListGroups(in ListGroupsInput) (*model.Descriptor, error) {
	q := make(url.Values)
	if in.SortBy != nil {
		encoded, err := EncodeSortBy(in.SortBy)
		if err != nil {
			return nil, err
		}
		q.Set("sortBy", encoded)
	}
	if in.Select != nil {
		q.Set("select", strings.Join(in.Select, ","))
	}
	if in.Filters != nil {
		encoded, err := EncodeFilters(in.Filters)
		if err != nil {
			return nil, err
		}
		q.Set("filters", encoded)
	}
	return &model.Descriptor{Method: http.MethodGet, Path: "/groups", Query: q}, nil
}

// ListGroups retrieves the group collection.
func (g *Gateway) ListGroups(ctx context.Context, in ListGroupsInput) *model.Result {
	d, err := shapeListGroups(in)
	return g.run(ctx, d, err)
}

// ListUsersInput lists users with pagination. Offset and PageSize default to
// 1 and 20, the upstream's own defaults.
type ListUsersInput struct {
	Offset   *int     `json:"offset"`
	PageSize *int     `json:"page_size"`
	Filters  Filters  `json:"filters"`
	SortBy   SortBy   `json:"sort_by"`
	Select   []string `json:"select"`
}

func shapeListUsers(in ListUsersInput) (*model.Descriptor, error) {
	q := url.Values{
		"offset":   {strconv.Itoa(pageDefault(in.Offset, 1))},
		"pageSize": {strconv.Itoa(pageDefault(in.PageSize, 20))},
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
	if in.Select != nil {
		q.Set("select", strings.Join(in.Select, ","))
	}
	return &model.Descriptor{Method: http.MethodGet, Path: "/users", Query: q}, nil
}

// ListUsers retrieves the user collection.
func (g *Gateway) ListUsers(ctx context.Context, in ListUsersInput) *model.Result {
	d, err := shapeListUsers(in)
	return g.run(ctx, d, err)
}

func pageDefault(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}
