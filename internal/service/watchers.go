package service

import (
	"context"
	"fmt"
	"net/http"

	"openproject-gateway-go/internal/model"
)

// WorkPackageAvailableWatchers retrieves users eligible to watch a work package.
func (g *Gateway) WorkPackageAvailableWatchers(ctx context.Context, in WorkPackageRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/work_packages/%d/available_watchers", in.WorkPackageID),
	}, nil)
}

// ListWatchers retrieves the current watchers of a work package.
func (g *Gateway) ListWatchers(ctx context.Context, in WorkPackageRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/work_packages/%d/watchers", in.WorkPackageID),
	}, nil)
}

// WatcherInput pairs a work package with the user being (un)subscribed.
type WatcherInput struct {
	WorkPackageID int `json:"work_package_id"`
	UserID        int `json:"user_id"`
}

func shapeAddWatcher(in WatcherInput) (*model.Descriptor, error) {
	return &model.Descriptor{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/work_packages/%d/watchers", in.WorkPackageID),
		Body: map[string]any{
			"_links": map[string]any{"user": model.UserLink(in.UserID)},
		},
	}, nil
}

// AddWatcher subscribes a user to a work package. Adding an existing watcher
// still succeeds upstream.
func (g *Gateway) AddWatcher(ctx context.Context, in WatcherInput) *model.Result {
	d, err := shapeAddWatcher(in)
	return g.run(ctx, d, err)
}

// RemoveWatcher unsubscribes a user from a work package. Success is usually a
// 204 with no body.
func (g *Gateway) RemoveWatcher(ctx context.Context, in WatcherInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/work_packages/%d/watchers/%d", in.WorkPackageID, in.UserID),
	}, nil)
}
