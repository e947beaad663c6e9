package mw

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestRateLimitBurstThenReject(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 3, RefillPerIPPerMin: 1})(okHandler)

	do := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/bookmarks", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	for i := 0; i < 3; i++ {
		if w := do("1.1.1.1:1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, w.Code)
		}
	}

	w := do("1.1.1.1:1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry < 1 {
		t.Errorf("bad Retry-After %q", w.Header().Get("Retry-After"))
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("remaining = %q, want 0", got)
	}

	// other clients have their own bucket
	if w := do("2.2.2.2:1"); w.Code != http.StatusOK {
		t.Errorf("other client: got %d, want 200", w.Code)
	}
}

func TestIPLimiterForgetsIdleClients(t *testing.T) {
	l := newIPLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, IdleTTL: time.Minute, SweepInterval: time.Second})
	now := time.Now()

	if ok, _, _ := l.allow("a", now); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _, _ := l.allow("a", now); ok {
		t.Fatal("second request should be limited")
	}

	later := now.Add(2 * time.Minute)
	l.get("b", later)
	l.mu.Lock()
	_, kept := l.clients["a"]
	l.mu.Unlock()
	if kept {
		t.Error("idle client was not swept")
	}
}
