package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/n8nhub/community_hub/pkg/storage"
)

// MediaUpload is a file received from a multipart form.
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type uploadedMedia struct {
	URL  string
	Key  string
	Kind storage.Kind
}

// storeMedia validates u against policy and uploads it under prefix.
// Policy failures are wrapped in ErrInvalidMedia.
func storeMedia(ctx context.Context, up storage.Uploader, policy storage.Policy, prefix string, u MediaUpload) (*uploadedMedia, error) {
	kind, err := policy.Validate(u.ContentType, u.Size)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMedia, err)
		}
		return nil, err
	}
	if up == nil {
		return nil, ErrStorageUnavailable
	}

	key := storage.ObjectKey(prefix, u.Filename)
	url, err := up.Upload(ctx, key, u.ContentType, u.Body, u.Size)
	if err != nil {
		return nil, err
	}
	return &uploadedMedia{URL: url, Key: key, Kind: kind}, nil
}
