package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("generated id = %q, header %q", seen, rec.Header().Get(HeaderRequestID))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-1" {
		t.Errorf("incoming id not kept: %q", seen)
	}
}

func TestLimitBytes(t *testing.T) {
	h := LimitBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		body string
		want int
	}{
		{"short", http.StatusOK},
		{"far too long body", http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)))
		if rec.Code != tc.want {
			t.Errorf("body %q: status %d, want %d", tc.body, rec.Code, tc.want)
		}
	}
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(2)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("1.1.1.1") || !l.Allow("1.1.1.1") {
		t.Fatal("burst rejected")
	}
	if l.Allow("1.1.1.1") {
		t.Error("third request in the same instant allowed")
	}
	if !l.Allow("2.2.2.2") {
		t.Error("other client limited")
	}
	now = now.Add(31 * time.Second)
	if !l.Allow("1.1.1.1") {
		t.Error("token not refilled after 30s")
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, false, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("second status = %d, retry-after %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		remote, real, fwd string
		trust             bool
		want              string
	}{
		{"10.0.0.1:5555", "", "", false, "10.0.0.1"},
		{"10.0.0.1:5555", "192.168.1.9", "", false, "10.0.0.1"},
		{"10.0.0.1:5555", "", "172.16.0.4", false, "10.0.0.1"},
		{"10.0.0.1:5555", "192.168.1.9", "", true, "192.168.1.9"},
		{"10.0.0.1:5555", "", "1.2.3.4, 172.16.0.4", true, "172.16.0.4"},
		{"10.0.0.1:5555", "", "", true, "10.0.0.1"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.real != "" {
			req.Header.Set("X-Real-IP", tc.real)
		}
		if tc.fwd != "" {
			req.Header.Set("X-Forwarded-For", tc.fwd)
		}
		if got := ClientIP(req, tc.trust); got != tc.want {
			t.Errorf("ClientIP(real=%q fwd=%q trust=%v) = %q, want %q", tc.real, tc.fwd, tc.trust, got, tc.want)
		}
	}
}

func TestRateLimitIgnoresSpoofedHeaders(t *testing.T) {
	h := RateLimit(1, false, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 3)
	for _, spoof := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Real-IP", spoof)
		req.Header.Set("X-Forwarded-For", spoof)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("status %d body %s", rec.Code, rec.Body.String())
	}
}
