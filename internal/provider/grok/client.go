// Package grok implements the upstream client for the grok.com web API.
package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mandalnilabja/grokway/internal/provider"
)

// Upstream paths relative to BaseURL.
const (
	conversationPath = "/rest/app-chat/conversations/new"
	uploadFilePath   = "/rest/app-chat/upload-file"
	rpcPath          = "/api/rpc"
)

const (
	defaultBaseURL      = "https://grok.com"
	defaultAssetURL     = "https://assets.grok.com"
	defaultTimeout      = 120 * time.Second
	signatureTimeout    = 10 * time.Second
	maxErrorBodyPreview = 512
)

// Config configures a Client.
type Config struct {
	BaseURL      string
	AssetURL     string
	SignatureURL string

	// Timeout bounds connecting and waiting for response headers. It does
	// not cut off a stream that is already flowing.
	Timeout time.Duration

	// Proxies supplies the egress address for each outbound connection.
	Proxies *provider.ProxyRotator

	Logger *slog.Logger
}

// Client talks to the grok.com web API. It implements provider.Upstream.
type Client struct {
	http         *http.Client
	baseURL      string
	assetURL     string
	signatureURL string
	logger       *slog.Logger
}

var _ provider.Upstream = (*Client)(nil)

// New creates a Client from cfg, filling defaults for empty fields.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.AssetURL == "" {
		cfg.AssetURL = defaultAssetURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy: cfg.Proxies.Proxy,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		// Streams are consumed line by line as they arrive.
		DisableCompression: true,
	}

	return &Client{
		http:         &http.Client{Transport: transport},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		assetURL:     strings.TrimRight(cfg.AssetURL, "/"),
		signatureURL: cfg.SignatureURL,
		logger:       cfg.Logger.With("component", "grok"),
	}
}

// Conversation posts a new conversation and returns the open event stream.
// Non-200 responses are returned as-is for the caller to classify.
func (c *Client) Conversation(ctx context.Context, req *provider.ConversationRequest) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+conversationPath, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	applyDefaultHeaders(httpReq.Header, req.Cookie)
	if req.RequestID != "" {
		httpReq.Header.Set("x-xai-request-id", req.RequestID)
	}
	if req.Signature != "" {
		httpReq.Header.Set("x-statsig-id", req.Signature)
	}
	return c.http.Do(httpReq)
}

// StatusError reports a non-200 upstream reply.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Op, e.Status, e.Body)
}

func newStatusError(op string, resp *http.Response) error {
	preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(preview))}
}

// postJSON sends body as JSON and decodes a JSON reply into out.
func (c *Client) postJSON(ctx context.Context, op, url, cookie string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	applyDefaultHeaders(req.Header, cookie)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", op, err)
	}
	return nil
}

// Signature fetches an x-statsig-id value from the signing endpoint.
func (c *Client) Signature(ctx context.Context) (string, error) {
	if c.signatureURL == "" {
		return "", provider.ErrNoSignature
	}
	ctx, cancel := context.WithTimeout(ctx, signatureTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.signatureURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("signature: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newStatusError("signature", resp)
	}
	var out struct {
		StatsigID string `json:"x_statsig_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("signature: decode reply: %w", err)
	}
	if out.StatsigID == "" {
		return "", provider.ErrNoSignature
	}
	return out.StatsigID, nil
}
