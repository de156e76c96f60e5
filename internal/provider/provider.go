// Package provider defines the upstream collaborators the gateway dispatches
// through: the conversation transport, file uploads, generated-asset
// fetches, the request signer and optional image hosts.
package provider

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoSignature is returned when the signing endpoint yields no value.
var ErrNoSignature = errors.New("no signature returned")

// ConversationRequest is one outbound dispatch of a prepared payload.
type ConversationRequest struct {
	// Cookie carries the session credential and any clearance cookie.
	Cookie string

	// RequestID is sent as x-xai-request-id; fresh per attempt.
	RequestID string

	// Signature is sent as x-statsig-id when non-empty.
	Signature string

	// Body is the JSON-encoded conversation payload.
	Body []byte
}

// Transport dispatches conversations to the upstream. The returned
// response body is an open newline-delimited JSON event stream that the
// caller must close.
type Transport interface {
	Conversation(ctx context.Context, req *ConversationRequest) (*http.Response, error)
}

// Uploader stores attachments upstream and returns their file ids.
type Uploader interface {
	// UploadText uploads text as a plain-text file named name.
	UploadText(ctx context.Context, cookie, name, text string) (string, error)

	// UploadImage uploads a base64 data URI (or bare base64) image.
	UploadImage(ctx context.Context, cookie, dataURI string) (string, error)
}

// Asset is a fetched generated image.
type Asset struct {
	Data        []byte
	ContentType string
}

// AssetFetcher downloads generated assets by their upstream path.
type AssetFetcher interface {
	FetchAsset(ctx context.Context, cookie, path string) (*Asset, error)
}

// Signer fetches the anti-automation signature header value.
type Signer interface {
	Signature(ctx context.Context) (string, error)
}

// ImageHost republishes generated images and returns a public URL.
type ImageHost interface {
	Name() string
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// Upstream bundles everything the grok client implements.
type Upstream interface {
	Transport
	Uploader
	AssetFetcher
	Signer
}
