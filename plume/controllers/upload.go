package controllers

import (
	"context"

	"plume/plume/sources/storage"
)

// UploadAuthorizer issues time-limited signed upload parameters. Satisfied
// by storage.ImageStore.
type UploadAuthorizer interface {
	UploadAuth(ctx context.Context) (storage.UploadAuth, error)
}

type UploadController struct {
	images UploadAuthorizer
}

func NewUploadController(images UploadAuthorizer) *UploadController {
	return &UploadController{images: images}
}

// GetUploadAuth grants no access to stored data, so there is no ownership
// check beyond the session the route requires.
func (c *UploadController) GetUploadAuth(ctx context.Context) (storage.UploadAuth, error) {
	return c.images.UploadAuth(ctx)
}
