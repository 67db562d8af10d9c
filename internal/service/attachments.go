package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"openproject-gateway-go/internal/model"
)

// UploadAttachmentInput uploads a local file. The file read happens at shape
// time so a missing file short-circuits before any network attempt.
type UploadAttachmentInput struct {
	FilePath    string  `json:"file_path"`
	FileName    *string `json:"file_name"`
	Description *string `json:"description"`
}

// AttachToWorkPackageInput uploads a file and attaches it to a work package
// in one request.
type AttachToWorkPackageInput struct {
	WorkPackageID int     `json:"work_package_id"`
	FilePath      string  `json:"file_path"`
	FileName      *string `json:"file_name"`
	Description   *string `json:"description"`
}

func buildUpload(path string, name, description *string) (*model.Upload, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("file not found at path: %s", path)
	}

	fileName := filepath.Base(path)
	if name != nil {
		fileName = *name
	}

	metadata := map[string]any{"fileName": fileName}
	if description != nil {
		metadata["description"] = model.Raw(*description)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &model.Upload{
		FileName:    fileName,
		ContentType: contentType,
		Metadata:    metadata,
		Content:     content,
	}, nil
}

func shapeAttachToWorkPackage(in AttachToWorkPackageInput) (*model.Descriptor, error) {
	up, err := buildUpload(in.FilePath, in.FileName, in.Description)
	if err != nil {
		return nil, err
	}
	return &model.Descriptor{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/work_packages/%d/attachments", in.WorkPackageID),
		Upload: up,
	}, nil
}

// AttachToWorkPackage uploads a file directly onto a work package.
func (g *Gateway) AttachToWorkPackage(ctx context.Context, in AttachToWorkPackageInput) *model.Result {
	d, err := shapeAttachToWorkPackage(in)
	return g.run(ctx, d, err)
}

func shapeUploadAttachment(in UploadAttachmentInput) (*model.Descriptor, error) {
	up, err := buildUpload(in.FilePath, in.FileName, in.Description)
	if err != nil {
		return nil, err
	}
	return &model.Descriptor{
		Method: http.MethodPost,
		Path:   "/attachments",
		Upload: up,
	}, nil
}

// UploadAttachment uploads a containerless file; the returned attachment id
// can be linked to a work package later.
func (g *Gateway) UploadAttachment(ctx context.Context, in UploadAttachmentInput) *model.Result {
	d, err := shapeUploadAttachment(in)
	return g.run(ctx, d, err)
}

// ListWorkPackageAttachments retrieves the attachments of a work package.
func (g *Gateway) ListWorkPackageAttachments(ctx context.Context, in WorkPackageRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/work_packages/%d/attachments", in.WorkPackageID),
	}, nil)
}

// AttachmentRefInput identifies a single attachment.
type AttachmentRefInput struct {
	AttachmentID int `json:"attachment_id"`
}

// ViewAttachment retrieves attachment metadata.
func (g *Gateway) ViewAttachment(ctx context.Context, in AttachmentRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/attachments/%d", in.AttachmentID),
	}, nil)
}

// DeleteAttachment permanently deletes an attachment. Success is usually a
// 204 with no body.
func (g *Gateway) DeleteAttachment(ctx context.Context, in AttachmentRefInput) *model.Result {
	return g.run(ctx, &model.Descriptor{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/attachments/%d", in.AttachmentID),
	}, nil)
}
