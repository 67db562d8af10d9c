package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"openproject-gateway-go/internal/model"
)

// NotificationsInput pages through the in-app notification collection.
type NotificationsInput struct {
	Offset   *int    `json:"offset"`
	PageSize *int    `json:"page_size"`
	SortBy   SortBy  `json:"sort_by"`
	GroupBy  *string `json:"group_by"`
	Filters  Filters `json:"filters"`
}

func shapeNotifications(in NotificationsInput) (*model.Descriptor, error) {
	q := url.Values{
		"offset":   {strconv.Itoa(pageDefault(in.Offset, 1))},
		"pageSize": {strconv.Itoa(pageDefault(in.PageSize, 20))},
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
	if in.Filters != nil {
		encoded, err := EncodeFilters(in.Filters)
		if err != nil {
			return nil, err
		}
		q.Set("filters", encoded)
	}
	return &model.Descriptor{Method: http.MethodGet, Path: "/notifications", Query: q}, nil
}

// Notifications retrieves the notification collection.
func (g *Gateway) Notifications(ctx context.Context, in NotificationsInput) *model.Result {
	d, err := shapeNotifications(in)
	return g.run(ctx, d, err)
}

// NotificationDetailInput identifies one detail of a notification.
type NotificationDetailInput struct {
	NotificationID int `json:"notification_id"`
	DetailID       int `json:"detail_id"`
}

// NotificationDetail retrieves a single notification detail resource.
func (g *Gateway) NotificationDetail(ctx context.Context, in NotificationDetailInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/notifications/%d/details/%d", in.NotificationID, in.DetailID),
	}, nil)
}
