// Package upload stores notification screenshots in Vercel Blob and returns
// their public URL.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"dink-feed/utils"
)

const (
	DefaultBaseURL = "https://blob.vercel-storage.com"
	DefaultMaxSize = 8 << 20
)

var (
	ErrUnsupportedType = errors.New("file must be PNG or JPEG")
	ErrTooLarge        = errors.New("file size exceeds limit")
)

type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

type Uploader interface {
	Upload(ctx context.Context, img Image) (string, error)
}

// Validate checks the attachment type and size before anything is read
// into memory.
func Validate(contentType string, size, max int64) error {
	if max <= 0 {
		max = DefaultMaxSize
	}
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png", "image/jpeg":
	default:
		return fmt.Errorf("%w: got %q", ErrUnsupportedType, contentType)
	}
	if size > max {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, max)
	}
	return nil
}

type Blob struct {
	client *resty.Client
}

type blobResponse struct {
	URL         string `json:"url"`
	Pathname    string `json:"pathname"`
	ContentType string `json:"contentType"`
}

type blobError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewBlob(baseURL, token string, timeout time.Duration) *Blob {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(token).
		SetHeader("x-api-version", "7").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)
	return &Blob{client: client}
}

func (b *Blob) Upload(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("upload: empty file")
	}
	var out blobResponse
	var apiErr blobError
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("x-content-type", img.ContentType).
		SetHeader("x-add-random-suffix", "0").
		SetBody(img.Data).
		SetResult(&out).
		SetError(&apiErr).
		Put("/" + Pathname(img.Name))
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload: http %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload: response carried no url")
	}
	return out.URL, nil
}

// Pathname builds a collision resistant blob path for a client supplied name.
func Pathname(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "screenshot.png"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return "screenshots/" + utils.GenerateID(10) + "-" + b.String()
}
