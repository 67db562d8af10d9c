package service

import (
	"context"
	"fmt"
	"net/http"

	"openproject-gateway-go/internal/model"
)

// ViewActivityInput identifies an activity (comment or history entry).
type ViewActivityInput struct {
	ActivityID int `json:"activity_id"`
}

// ViewActivity retrieves a single activity.
func (g *Gateway) ViewActivity(ctx context.Context, in ViewActivityInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/activities/%d", in.ActivityID),
	}, nil)
}

// UpdateActivityInput replaces the comment text of an activity.
type UpdateActivityInput struct {
	ActivityID     int    `json:"activity_id"`
	NewCommentText string `json:"new_comment_text"`
}

func shapeUpdateActivity(in UpdateActivityInput) (*model.Descriptor, error) {
	if in.NewCommentText == "" {
		return nil, fmt.Errorf("comment text is required")
	}
	return &model.Descriptor{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/activities/%d", in.ActivityID),
		Body:   map[string]any{"comment": model.Raw(in.NewCommentText)},
	}, nil
}

// UpdateActivity edits a previously posted comment.
func (g *Gateway) UpdateActivity(ctx context.Context, in UpdateActivityInput) *model.Result {
	d, err := shapeUpdateActivity(in)
	return g.run(ctx, d, err)
}
