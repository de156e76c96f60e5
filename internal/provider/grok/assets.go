package grok

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mandalnilabja/grokway/internal/provider"
)

// maxAssetSize caps a generated image download.
const maxAssetSize = 32 << 20

// FetchAsset downloads a generated asset by its upstream path.
func (c *Client) FetchAsset(ctx context.Context, cookie, path string) (*provider.Asset, error) {
	url := c.assetURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	applyDefaultHeaders(req.Header, cookie)
	req.Header.Del("Content-Type")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError("fetch asset", resp)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	return &provider.Asset{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
