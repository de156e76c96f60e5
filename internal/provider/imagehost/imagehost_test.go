package imagehost

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestNewSelectsHost(t *testing.T) {
	if h := New("", "", nil); h != nil {
		t.Errorf("New() without keys = %v, want nil", h)
	}
	if h := New("p", "t", nil); h == nil || h.Name() != "picgo" {
		t.Errorf("New() with both keys = %v, want picgo", h)
	}
	if h := New("", "t", nil); h == nil || h.Name() != "tumy" {
		t.Errorf("New() with tumy key = %v, want tumy", h)
	}
}

func TestPicGoUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f, hdr, err := r.FormFile("source")
		if err != nil {
			t.Errorf("FormFile() error: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "image.png" || len(data) != len(pngHeader) {
			t.Errorf("file = %s (%d bytes)", hdr.Filename, len(data))
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("part content type = %q", ct)
		}
		io.WriteString(w, `{"image":{"url":"https://img.example/1.png"}}`)
	}))
	defer srv.Close()

	h := &PicGo{Key: "key", URL: srv.URL}
	url, err := h.Upload(context.Background(), pngHeader, "image.png")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if url != "https://img.example/1.png" {
		t.Errorf("url = %q", url)
	}

	bad := &PicGo{Key: "wrong", URL: srv.URL}
	if _, err := bad.Upload(context.Background(), pngHeader, "image.png"); err == nil {
		t.Error("Upload() with wrong key returned no error")
	}
}

func TestTumyUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error: %v", err)
			return
		}
		if r.FormValue("storage_id") != "5" {
			t.Errorf("storage_id = %q", r.FormValue("storage_id"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("FormFile() error: %v", err)
		}
		io.WriteString(w, `{"data":{"links":{"url":"https://tu.example/a.jpg"}}}`)
	}))
	defer srv.Close()

	h := &Tumy{Key: "key", URL: srv.URL}
	url, err := h.Upload(context.Background(), pngHeader, "image.jpg")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if url != "https://tu.example/a.jpg" {
		t.Errorf("url = %q", url)
	}
}

func TestUploadMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	h := &Tumy{Key: "key", URL: srv.URL}
	if _, err := h.Upload(context.Background(), pngHeader, "image.jpg"); err != ErrNoURL {
		t.Errorf("Upload() error = %v, want ErrNoURL", err)
	}
}
