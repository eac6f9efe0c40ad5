package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/giygas/medsafe/config"
	"github.com/giygas/medsafe/metrics"
	"github.com/giygas/medsafe/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		query        string
		expectedCost int64
	}{
		{"Wizard page", http.MethodGet, "/", "", 0},
		{"Stylesheet", http.MethodGet, "/static/style.css", "", 0},
		{"Favicon", http.MethodGet, "/favicon.ico", "", 0},
		{"Health endpoint", http.MethodGet, "/health", "", 5},
		{"Metrics endpoint", http.MethodGet, "/metrics", "", 5},
		{"Submit count", http.MethodPost, "/count", "", 10},
		{"Check safety", http.MethodPost, "/check", "", 10},
		{"Start over", http.MethodPost, "/start-over", "", 10},
		{"Session API", http.MethodGet, "/api/v1/session", "", 5},
		{"Fields API", http.MethodGet, "/api/v1/fields/3", "", 5},
		{"Drug search", http.MethodGet, "/api/v1/drugs", "q=asp", 20},
		{"Drug listing", http.MethodGet, "/api/v1/drugs", "", 50},
		{"Default endpoint", http.MethodGet, "/unknown", "", 20},
		{"POST to root", http.MethodPost, "/", "", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.URL.RawQuery = tt.query

			if cost := getTokenCost(req); cost != tt.expectedCost {
				t.Errorf("getTokenCost(%s %s?%s) = %d, want %d", tt.method, tt.path, tt.query, cost, tt.expectedCost)
			}
		})
	}
}

func TestRateLimitHandler(t *testing.T) {
	rl := NewRateLimiter()
	handler := rl.Handler(okHandler)

	// 1000 tokens at 50 per listing
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/drugs", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/drugs", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 once the bucket is empty, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("Expected rate limit headers, got %v", w.Header())
	}

	// Free routes still pass
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected free route to pass, got %d", w.Code)
	}

	// Other clients have their own bucket
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drugs", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected another client to pass, got %d", w.Code)
	}
}

func TestRateLimiterBucketsAndCleanup(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()

	rl.getBucket("192.0.2.1")
	rl.getBucket("192.0.2.2").TakeAvailable(10)

	if got := testutil.ToFloat64(metrics.RateLimiterBucketsTotal); got != 2 {
		t.Errorf("Expected 2 buckets in gauge, got %v", got)
	}

	if removed := rl.removeIdle(); removed != 1 {
		t.Errorf("Expected the full bucket removed, got %d", removed)
	}
	if got := testutil.ToFloat64(metrics.RateLimiterBucketsTotal); got != 1 {
		t.Errorf("Expected 1 bucket in gauge, got %v", got)
	}

	// Stop is idempotent
	rl.Stop()
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 16, MaxHeaderSize: 64}
	handler := RequestSizeMiddleware(cfg)(okHandler)

	tests := []struct {
		name       string
		body       string
		header     string
		wantStatus int
	}{
		{"small request", "a=1", "", http.StatusOK},
		{"body too large", strings.Repeat("a", 17), "", http.StatusRequestEntityTooLarge},
		{"headers too large", "", strings.Repeat("h", 100), http.StatusRequestHeaderFieldsTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/count", strings.NewReader(tt.body))
			if tt.header != "" {
				req.Header.Set("X-Big", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRequestSizeMiddlewareLimitsChunkedBody(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 16, MaxHeaderSize: 1024}
	var parseErr error
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parseErr = r.ParseForm()
	}))

	req := httptest.NewRequest(http.MethodPost, "/count", strings.NewReader(url.Values{"drug-count": {strings.Repeat("9", 64)}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if parseErr == nil {
		t.Error("Expected body read to fail past the limit")
	}
}

func TestRealIPMiddleware(t *testing.T) {
	var got string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.RemoteAddr
	}))

	tests := []struct {
		xff  string
		want string
	}{
		{"", "192.0.2.1:1234"},
		{"203.0.113.5", "203.0.113.5"},
		{"203.0.113.5, 10.0.0.1", "203.0.113.5"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got != tt.want {
			t.Errorf("X-Forwarded-For %q: expected %q, got %q", tt.xff, tt.want, got)
		}
	}
}

func TestBlockDirectAccessMiddleware(t *testing.T) {
	handler := BlockDirectAccessMiddleware(okHandler)

	tests := []struct {
		name       string
		remoteAddr string
		header     string
		wantStatus int
	}{
		{"localhost", "127.0.0.1:5000", "", http.StatusOK},
		{"ipv6 localhost", "[::1]:5000", "", http.StatusOK},
		{"direct public", "203.0.113.5:5000", "", http.StatusForbidden},
		{"through proxy", "203.0.113.5:5000", "203.0.113.9", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.header != "" {
				req.Header.Set("X-Real-IP", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestSessionMiddleware(t *testing.T) {
	store := session.NewStore(0)
	existing := store.Create()

	var seen string
	handler := SessionMiddleware(store, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = session.IDFromContext(r.Context())
	}))

	t.Run("known cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: existing.ID})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != existing.ID {
			t.Errorf("Expected id %s in context, got %s", existing.ID, seen)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Error("Expected no new cookie for a known session")
		}
	})

	for _, value := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		t.Run("no session on read for "+value, func(t *testing.T) {
			before := store.Len()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if value != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: value})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if len(w.Result().Cookies()) != 0 {
				t.Errorf("Expected no cookie on a read, got %v", w.Result().Cookies())
			}
			if seen != "" {
				t.Errorf("Expected no session id in context, got %q", seen)
			}
			if store.Len() != before {
				t.Errorf("Expected the store to stay at %d sessions, got %d", before, store.Len())
			}
		})

		t.Run("new session on transition for "+value, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/count", nil)
			if value != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: value})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			cookies := w.Result().Cookies()
			if len(cookies) != 1 || cookies[0].Name != session.CookieName {
				t.Fatalf("Expected one session cookie, got %v", cookies)
			}
			if seen != cookies[0].Value {
				t.Errorf("Expected context id to match the cookie")
			}
			if _, ok := store.Get(seen); !ok {
				t.Error("Expected the new session to be stored")
			}
		})
	}
}
