package translate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mandalnilabja/grokway/internal/provider"
)

// ImageFetchAttempts bounds generated-asset downloads.
const ImageFetchAttempts = 2

// HostUploadFailed is emitted in place of an image the host rejected.
const HostUploadFailed = "image generation failed: image host upload error"

// ErrNoImageRenderer is returned when image mode starts without a renderer.
var ErrNoImageRenderer = errors.New("no image renderer configured")

// ImageRenderer turns a generated asset path into a markdown image.
type ImageRenderer struct {
	fetcher    provider.AssetFetcher
	host       provider.ImageHost
	retryPause time.Duration
	logger     *slog.Logger
}

// NewImageRenderer creates a renderer. host may be nil, in which case
// images are inlined as data URIs.
func NewImageRenderer(fetcher provider.AssetFetcher, host provider.ImageHost, retryPause time.Duration, logger *slog.Logger) *ImageRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageRenderer{
		fetcher:    fetcher,
		host:       host,
		retryPause: retryPause,
		logger:     logger.With("component", "images"),
	}
}

// HasHost reports whether images are republished on an external host.
func (r *ImageRenderer) HasHost() bool {
	return r != nil && r.host != nil
}

// Render fetches the asset at path and returns one markdown image reference.
func (r *ImageRenderer) Render(ctx context.Context, cookie, path string) (string, error) {
	asset, err := r.fetch(ctx, cookie, path)
	if err != nil {
		return "", err
	}

	mime := mimetype.Detect(asset.Data)
	if r.host == nil {
		contentType := asset.ContentType
		if contentType == "" {
			contentType = mime.String()
		}
		return fmt.Sprintf("![image](data:%s;base64,%s)", contentType, base64.StdEncoding.EncodeToString(asset.Data)), nil
	}

	url, err := r.host.Upload(ctx, asset.Data, "image"+mime.Extension())
	if err != nil {
		r.logger.Error("image host upload failed", "host", r.host.Name(), "error", err)
		return HostUploadFailed, nil
	}
	r.logger.Info("image hosted", "host", r.host.Name())
	return fmt.Sprintf("![image](%s)", url), nil
}

// fetch downloads the asset, pausing retryPause×k after the k-th failure.
func (r *ImageRenderer) fetch(ctx context.Context, cookie, path string) (*provider.Asset, error) {
	var lastErr error
	for attempt := 1; attempt <= ImageFetchAttempts; attempt++ {
		asset, err := r.fetcher.FetchAsset(ctx, cookie, path)
		if err == nil {
			return asset, nil
		}
		lastErr = err
		r.logger.Warn("image fetch failed", "attempt", attempt, "error", err)
		if attempt == ImageFetchAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryPause * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("fetch image %s: %w", path, lastErr)
}
