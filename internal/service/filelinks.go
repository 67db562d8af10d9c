package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"openproject-gateway-go/internal/model"
)

// WorkPackageFileLinksInput lists external file links of a work package,
// optionally restricted to one storage.
type WorkPackageFileLinksInput struct {
	WorkPackageID int     `json:"work_package_id"`
	StorageFilter *string `json:"storage_filter"`
}

func shapeWorkPackageFileLinks(in WorkPackageFileLinksInput) (*model.Descriptor, error) {
	q := make(url.Values)
	if in.StorageFilter != nil {
		encoded, err := EncodeFilters(Filters{{
			"storage": Condition{Operator: "=", Values: []string{*in.StorageFilter}},
		}})
		if err != nil {
			return nil, err
		}
		q.Set("filters", encoded)
	}
	return &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/work_packages/%d/file_links", in.WorkPackageID),
		Query:  q,
	}, nil
}

// WorkPackageFileLinks retrieves the file links of a work package. The
// upstream contacts the storage origin for live data, so this read has
// upstream-side side effects.
func (g *Gateway) WorkPackageFileLinks(ctx context.Context, in WorkPackageFileLinksInput) *model.Result {
	d, err := shapeWorkPackageFileLinks(in)
	return g.run(ctx, d, err)
}

// FileLinkRefInput identifies a single file link.
type FileLinkRefInput struct {
	FileLinkID int `json:"file_link_id"`
}

// GetFileLink retrieves one file link resource.
func (g *Gateway) GetFileLink(ctx context.Context, in FileLinkRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/file_links/%d", in.FileLinkID),
	}, nil)
}
