package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutSkipsPrefixes(t *testing.T) {
	sawDeadline := map[string]bool{}
	h := Timeout(time.Second, "/ws/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Deadline()
		sawDeadline[r.URL.Path] = ok
	}))

	for _, p := range []string{"/bookmarks", "/ws/bookmarks"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	if !sawDeadline["/bookmarks"] {
		t.Error("regular route should have a deadline")
	}
	if sawDeadline["/ws/bookmarks"] {
		t.Error("websocket route should not have a deadline")
	}
}
