package service

import (
	"context"
	"fmt"
	"net/http"

	"openproject-gateway-go/internal/model"
)

// CustomActionRefInput identifies a custom action.
type CustomActionRefInput struct {
	CustomActionID int `json:"custom_action_id"`
}

// GetCustomAction retrieves a custom action definition.
func (g *Gateway) GetCustomAction(ctx context.Context, in CustomActionRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/custom_actions/%d", in.CustomActionID),
	}, nil)
}

// ExecuteCustomActionInput applies a custom action to a work package.
// LockVersion is mandatory, same as for work package updates.
type ExecuteCustomActionInput struct {
	CustomActionID int  `json:"custom_action_id"`
	WorkPackageID  int  `json:"work_package_id"`
	LockVersion    *int `json:"lock_version"`
}

func shapeExecuteCustomAction(in ExecuteCustomActionInput) (*model.Descriptor, error) {
	if in.LockVersion == nil {
		return nil, fmt.Errorf("lock_version is required: read the work package first and echo its lockVersion")
	}
	return &model.Descriptor{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/custom_actions/%d/execute", in.CustomActionID),
		Body: map[string]any{
			"_links": map[string]any{
				"workPackage": model.WorkPackageLink(in.WorkPackageID),
			},
			"lockVersion": *in.LockVersion,
		},
	}, nil
}

// ExecuteCustomAction runs a custom action against a work package and returns
// the altered work package.
func (g *Gateway) ExecuteCustomAction(ctx context.Context, in ExecuteCustomActionInput) *model.Result {
	d, err := shapeExecuteCustomAction(in)
	return g.run(ctx, d, err)
}
