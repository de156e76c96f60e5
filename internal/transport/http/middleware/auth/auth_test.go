package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/grokway/internal/storage"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if GetAPIKey(r.Context()) == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *CachedAPIKey]{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	sessions := NewSessionStore(time.Hour)
	defer sessions.Stop()
	live := sessions.Create()

	tests := []struct {
		name           string
		authHeader     string
		cookie         string
		wantStatus     int
		wantNextCalled bool
	}{
		{"correct key passes", "Bearer sk-test", "", http.StatusOK, true},
		{"cached key passes again", "Bearer sk-test", "", http.StatusOK, true},
		{"wrong key rejects", "Bearer wrong", "", http.StatusUnauthorized, false},
		{"missing header rejects", "", "", http.StatusUnauthorized, false},
		{"malformed header rejects", "Basic sk-test", "", http.StatusUnauthorized, false},
		{"manager session passes", "", live.ID, http.StatusOK, true},
		{"unknown session rejects", "", "bogus", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := APIKeyAuth("sk-test", sessions, cache)(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/get/tokens", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if called != tt.wantNextCalled {
				t.Errorf("expected nextCalled=%v, got %v", tt.wantNextCalled, called)
			}
		})
		cache.Wait()
	}
}

func TestAPIKeyAuthEmptyKeyRejectsAll(t *testing.T) {
	called := false
	h := APIKeyAuth("", nil, nil)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || called {
		t.Errorf("status = %d, called = %v", rec.Code, called)
	}
}

func TestSessionStore(t *testing.T) {
	s := NewSessionStore(time.Hour)
	defer s.Stop()

	sess := s.Create()
	if s.Get(sess.ID) == nil {
		t.Fatal("new session should be live")
	}
	s.Delete(sess.ID)
	if s.Get(sess.ID) != nil {
		t.Error("deleted session should be gone")
	}

	expired := NewSessionStore(-time.Second)
	defer expired.Stop()
	if expired.Get(expired.Create().ID) != nil {
		t.Error("expired session should not be returned")
	}
}

func TestSessionAuth(t *testing.T) {
	s := NewSessionStore(time.Hour)
	defer s.Stop()

	called := false
	h := SessionAuth(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manager/api/get", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Errorf("no cookie: status = %d, called = %v", rec.Code, called)
	}

	login := httptest.NewRecorder()
	SetSessionCookie(login, httptest.NewRequest(http.MethodPost, "/manager/login", nil), s.Create())
	req := httptest.NewRequest(http.MethodGet, "/manager/api/get", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("valid session should reach the handler")
	}
}

type hashStore struct{ hash string }

func (h hashStore) GetAdminPasswordHash() (string, error) { return h.hash, nil }

func TestVerifyManagerPassword(t *testing.T) {
	if _, err := VerifyManagerPassword(hashStore{}, "x"); err != ErrManagerNotConfigured {
		t.Errorf("err = %v, want ErrManagerNotConfigured", err)
	}

	params := storage.DefaultArgon2Params()
	params.Memory = 8 * 1024
	params.Iterations = 1
	hash, err := storage.HashPassword("hunter2hunter2", params)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := VerifyManagerPassword(hashStore{hash}, "hunter2hunter2")
	if err != nil || !ok {
		t.Errorf("correct password: ok=%v err=%v", ok, err)
	}
	ok, _ = VerifyManagerPassword(hashStore{hash}, "wrong")
	if ok {
		t.Error("wrong password should not verify")
	}
}
