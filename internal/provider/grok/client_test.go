package grok

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mandalnilabja/grokway/internal/provider"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Config{
		BaseURL:      srv.URL,
		AssetURL:     srv.URL + "/assets",
		SignatureURL: srv.URL + "/sign",
		Timeout:      5 * time.Second,
	})
	return c, srv
}

func TestConversationHeaders(t *testing.T) {
	var got *http.Request
	var body []byte
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"result":{"response":{"token":"hi"}}}`+"\n")
	}))

	resp, err := c.Conversation(context.Background(), &provider.ConversationRequest{
		Cookie:    "sso-rw=a;sso=a",
		RequestID: "req-1",
		Signature: "sig",
		Body:      []byte(`{"message":"x"}`),
	})
	if err != nil {
		t.Fatalf("Conversation() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.URL.Path != conversationPath {
		t.Errorf("path = %s", got.URL.Path)
	}
	checks := map[string]string{
		"Cookie":           "sso-rw=a;sso=a",
		"X-Xai-Request-Id": "req-1",
		"X-Statsig-Id":     "sig",
		"Origin":           "https://grok.com",
		"Content-Type":     "text/plain;charset=UTF-8",
	}
	for k, want := range checks {
		if v := got.Header.Get(k); v != want {
			t.Errorf("header %s = %q, want %q", k, v, want)
		}
	}
	if string(body) != `{"message":"x"}` {
		t.Errorf("body = %s", body)
	}
}

func TestConversationOmitsEmptySignature(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Statsig-Id"]; ok {
			t.Error("x-statsig-id sent without a signature")
		}
		w.WriteHeader(http.StatusForbidden)
	}))

	resp, err := c.Conversation(context.Background(), &provider.ConversationRequest{Cookie: "c"})
	if err != nil {
		t.Fatalf("Conversation() error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestUploadText(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != uploadFilePath {
			t.Errorf("path = %s", r.URL.Path)
		}
		var in fileUpload
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Error(err)
			return
		}
		raw, _ := base64.StdEncoding.DecodeString(in.Content)
		if in.FileName != "message.txt" || in.FileMimeType != "text/plain" || string(raw) != "hello" {
			t.Errorf("upload = %+v (%s)", in, raw)
		}
		json.NewEncoder(w).Encode(uploadReply{FileMetadataID: "file-1"})
	}))

	id, err := c.UploadText(context.Background(), "c", "message.txt", "hello")
	if err != nil {
		t.Fatalf("UploadText() error: %v", err)
	}
	if id != "file-1" {
		t.Errorf("id = %q", id)
	}
}

func TestUploadImage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != rpcPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		var in rpcUpload
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Error(err)
			return
		}
		if in.RPC != "uploadFile" || in.Req.FileName != "image.png" ||
			in.Req.FileMimeType != "image/png" || in.Req.Content != "AAAA" {
			t.Errorf("upload = %+v", in)
		}
		json.NewEncoder(w).Encode(uploadReply{FileMetadataID: "img-1"})
	}))

	id, err := c.UploadImage(context.Background(), "c", "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("UploadImage() error: %v", err)
	}
	if id != "img-1" {
		t.Errorf("id = %q", id)
	}
}

func TestUploadErrors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == rpcPath {
			io.WriteString(w, `{}`)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "denied")
	}))

	_, err := c.UploadText(context.Background(), "c", "message.txt", "x")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized || se.Body != "denied" {
		t.Errorf("UploadText() error = %v, want StatusError 401", err)
	}

	_, err = c.UploadImage(context.Background(), "c", "AAAA")
	if !errors.Is(err, ErrNoFileID) {
		t.Errorf("UploadImage() error = %v, want ErrNoFileID", err)
	}
}

func TestFetchAsset(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/users/1/image.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Cookie") != "c" {
			t.Errorf("cookie = %q", r.Header.Get("Cookie"))
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff})
	}))

	asset, err := c.FetchAsset(context.Background(), "c", "users/1/image.jpg")
	if err != nil {
		t.Fatalf("FetchAsset() error: %v", err)
	}
	if asset.ContentType != "image/jpeg" || len(asset.Data) != 3 {
		t.Errorf("asset = %+v", asset)
	}

	if _, err := c.FetchAsset(context.Background(), "c", "missing"); err == nil {
		t.Error("FetchAsset() on missing asset returned no error")
	}
}

func TestSignature(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"x_statsig_id":"abc"}`)
	}))
	sig, err := c.Signature(context.Background())
	if err != nil || sig != "abc" {
		t.Fatalf("Signature() = %q, %v", sig, err)
	}

	empty, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"x_statsig_id":""}`)
	}))
	if _, err := empty.Signature(context.Background()); !errors.Is(err, provider.ErrNoSignature) {
		t.Errorf("Signature() error = %v, want ErrNoSignature", err)
	}

	noURL := New(Config{})
	if _, err := noURL.Signature(context.Background()); !errors.Is(err, provider.ErrNoSignature) {
		t.Errorf("Signature() without URL error = %v", err)
	}
}

func TestSplitDataURI(t *testing.T) {
	tests := []struct {
		in, mime, content string
	}{
		{"data:image/png;base64,AAAA", "image/png", "AAAA"},
		{"data:image/svg+xml;base64,BBBB", "image/svg+xml", "BBBB"},
		{"CCCC", "image/jpeg", "CCCC"},
	}
	for _, tc := range tests {
		mime, content := splitDataURI(tc.in)
		if mime != tc.mime || content != tc.content {
			t.Errorf("splitDataURI(%q) = %q, %q", tc.in, mime, content)
		}
	}
	if ext := mimeExtension("image/webp"); ext != "webp" {
		t.Errorf("mimeExtension() = %q", ext)
	}
	if !strings.HasPrefix(defaultHeaders["User-Agent"], "Mozilla/5.0") {
		t.Error("unexpected default user agent")
	}
}
