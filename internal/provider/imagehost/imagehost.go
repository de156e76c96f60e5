// Package imagehost republishes generated images on third-party image hosts.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mandalnilabja/grokway/internal/provider"
)

// Default upload endpoints.
const (
	PicGoURL = "https://www.picgo.net/api/1/upload"
	TumyURL  = "https://tu.my/api/v1/upload"
)

// ErrNoURL is returned when a host accepts an upload but returns no URL.
var ErrNoURL = errors.New("image host returned no url")

const uploadTimeout = 60 * time.Second

// New returns the host selected by the configured keys. PicGo wins when both
// are set; nil is returned when neither is.
func New(picgoKey, tumyKey string, client *http.Client) provider.ImageHost {
	switch {
	case picgoKey != "":
		return &PicGo{Key: picgoKey, URL: PicGoURL, Client: client}
	case tumyKey != "":
		return &Tumy{Key: tumyKey, URL: TumyURL, Client: client}
	default:
		return nil
	}
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: uploadTimeout}
}

// multipartBody encodes data as a single file field plus extra form fields.
func multipartBody(field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

// send posts the request and decodes a JSON reply into out.
func send(client *http.Client, req *http.Request, host string, out any) error {
	resp, err := httpClient(client).Do(req)
	if err != nil {
		return fmt.Errorf("%s upload: %w", host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s upload: status %d: %s", host, resp.StatusCode, preview)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s upload: decode reply: %w", host, err)
	}
	return nil
}

// PicGo uploads to picgo.net with an X-API-Key header.
type PicGo struct {
	Key    string
	URL    string
	Client *http.Client
}

// Name returns the host identifier.
func (p *PicGo) Name() string { return "picgo" }

// Upload posts data and returns the hosted image URL.
func (p *PicGo) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	body, contentType, err := multipartBody("source", filename, data, nil)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", p.Key)

	var out struct {
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
	}
	if err := send(p.Client, req, p.Name(), &out); err != nil {
		return "", err
	}
	if out.Image.URL == "" {
		return "", ErrNoURL
	}
	return out.Image.URL, nil
}

// Tumy uploads to tu.my with a bearer token.
type Tumy struct {
	Key    string
	URL    string
	Client *http.Client
}

// Name returns the host identifier.
func (t *Tumy) Name() string { return "tumy" }

// Upload posts data and returns the hosted image URL.
func (t *Tumy) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	body, contentType, err := multipartBody("file", filename, data, map[string]string{"storage_id": "5"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.Key)

	var out struct {
		Data struct {
			Links struct {
				URL string `json:"url"`
			} `json:"links"`
		} `json:"data"`
	}
	if err := send(t.Client, req, t.Name(), &out); err != nil {
		return "", err
	}
	if out.Data.Links.URL == "" {
		return "", ErrNoURL
	}
	return out.Data.Links.URL, nil
}
