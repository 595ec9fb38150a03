package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind is the media family of an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

const MB = int64(1 << 20)

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("media too large")
)

// Policy restricts the uploads accepted for one feature. A zero size limit
// means unlimited; a nil type list accepts any type of that kind.
type Policy struct {
	MaxImageBytes int64
	MaxVideoBytes int64
	ImageTypes    []string
	VideoTypes    []string
}

// NotePolicy applies to note attachments: images up to 10MB, videos up to 50MB.
var NotePolicy = Policy{
	MaxImageBytes: 10 * MB,
	MaxVideoBytes: 50 * MB,
	ImageTypes:    []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	VideoTypes:    []string{"video/mp4", "video/webm", "video/quicktime"},
}

// PromptVariationPolicy applies to prompt variation assets: any image type,
// MP4 videos up to 100MB.
var PromptVariationPolicy = Policy{
	MaxVideoBytes: 100 * MB,
	VideoTypes:    []string{"video/mp4"},
}

// Validate classifies contentType and checks it against the policy.
func (p Policy) Validate(contentType string, size int64) (Kind, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))

	var (
		kind  Kind
		limit int64
		types []string
	)
	switch {
	case strings.HasPrefix(ct, "image/"):
		kind, limit, types = KindImage, p.MaxImageBytes, p.ImageTypes
	case strings.HasPrefix(ct, "video/"):
		kind, limit, types = KindVideo, p.MaxVideoBytes, p.VideoTypes
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	if types != nil && !contains(types, ct) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if limit > 0 && size > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, limit)
	}
	return kind, nil
}

// Limit returns the size limit of kind, 0 when unlimited.
func (p Policy) Limit(kind Kind) int64 {
	if kind == KindVideo {
		return p.MaxVideoBytes
	}
	return p.MaxImageBytes
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ImageOptions are rendering hints appended to an image URL.
type ImageOptions struct {
	// Width in pixels, 0 keeps the original.
	Width int
	// Height in pixels, 0 keeps the original.
	Height int
	// Quality from 20 to 100, 0 means the default of 75.
	Quality int
	// Resize is one of cover, contain or fill; empty means cover.
	Resize string
}

// TransformURL appends the non default options of opts to raw.
func TransformURL(raw string, opts ImageOptions) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return raw
	}
	q := u.Query()
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	quality := opts.Quality
	if quality == 0 {
		quality = 75
	}
	if quality < 20 {
		quality = 20
	}
	if quality > 100 {
		quality = 100
	}
	q.Set("quality", strconv.Itoa(quality))

	resize := opts.Resize
	switch resize {
	case "cover", "contain", "fill":
	default:
		resize = "cover"
	}
	q.Set("resize", resize)

	u.RawQuery = q.Encode()
	return u.String()
}
