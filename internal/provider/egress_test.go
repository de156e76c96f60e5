package provider

import (
	"net/http"
	"testing"
)

func TestNewProxyRotator(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    []string
		wantErr bool
	}{
		{
			name:    "empty",
			entries: nil,
			want:    nil,
		},
		{
			name:    "blank entries dropped",
			entries: []string{"", "  ", "127.0.0.1:8080"},
			want:    []string{"http://127.0.0.1:8080"},
		},
		{
			name:    "schemes kept",
			entries: []string{"https://a:1", "socks5://b:2", "socks5h://u:p@c:3"},
			want:    []string{"https://a:1", "socks5://b:2", "socks5h://u:p@c:3"},
		},
		{
			name:    "unsupported scheme",
			entries: []string{"ftp://a:1"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewProxyRotator(tc.entries)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProxyRotator() error: %v", err)
			}
			if r.Len() != len(tc.want) {
				t.Fatalf("Len() = %d, want %d", r.Len(), len(tc.want))
			}
			for _, want := range tc.want {
				u, ok := r.Next()
				if !ok || u.String() != want {
					t.Errorf("Next() = %v, %v; want %s", u, ok, want)
				}
			}
		})
	}
}

func TestProxyRotatorWraps(t *testing.T) {
	r, err := NewProxyRotator([]string{"a:1", "b:2"})
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for i := 0; i < 5; i++ {
		u, ok := r.Next()
		if !ok {
			t.Fatal("Next() returned none")
		}
		got = append(got, u.Host)
	}
	want := []string{"a:1", "b:2", "a:1", "b:2", "a:1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
}

func TestProxyRotatorEmpty(t *testing.T) {
	r, _ := NewProxyRotator(nil)
	if _, ok := r.Next(); ok {
		t.Error("Next() on empty rotator returned an address")
	}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	u, err := r.Proxy(req)
	if err != nil || u != nil {
		t.Errorf("Proxy() = %v, %v; want direct", u, err)
	}

	var nilRotator *ProxyRotator
	if nilRotator.Len() != 0 {
		t.Error("nil rotator Len() != 0")
	}
}

func TestClearanceCookie(t *testing.T) {
	c := NewClearance("")
	if got := c.Cookie("sso-rw=a;sso=a"); got != "sso-rw=a;sso=a" {
		t.Errorf("Cookie() = %q", got)
	}

	c.Set("cf_clearance=xyz")
	if got := c.Get(); got != "xyz" {
		t.Errorf("Get() = %q, want xyz", got)
	}
	if got := c.Cookie("sso-rw=a;sso=a"); got != "sso-rw=a;sso=a;cf_clearance=xyz" {
		t.Errorf("Cookie() = %q", got)
	}

	c.Set("abc")
	if got := c.Cookie("x"); got != "x;cf_clearance=abc" {
		t.Errorf("Cookie() = %q", got)
	}
}
