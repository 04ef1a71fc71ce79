package imaging

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageHost re-hosts a user-supplied image URL and returns the canonical
// secure URL to persist.
type ImageHost interface {
	Upload(ctx context.Context, imageURL string) (string, error)
}

type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryHost(cloudName, apiKey, apiSecret string) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryHost{cld: cld}, nil
}

func (h *CloudinaryHost) Upload(ctx context.Context, imageURL string) (string, error) {
	result, err := h.cld.Upload.Upload(ctx, imageURL, uploader.UploadParams{Folder: "avatars"})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return result.SecureURL, nil
}
