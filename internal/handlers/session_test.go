package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vitrine-atacado/api/internal/platform/requestctx"
)

func TestSessionMiddleware(t *testing.T) {
	var seen string
	handler := SessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.SessionID(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		minted bool
	}{
		{name: "valid header kept", header: "abc-123_DEF"},
		{name: "missing header minted", header: "", minted: true},
		{name: "whitespace minted", header: "   ", minted: true},
		{name: "illegal characters minted", header: "abc;rm -rf", minted: true},
		{name: "oversized minted", header: strings.Repeat("a", 200), minted: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(SessionHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			echoed := rec.Header().Get(SessionHeader)
			if echoed == "" || echoed != seen {
				t.Fatalf("echoed %q but context carries %q", echoed, seen)
			}
			if tc.minted {
				if echoed == strings.TrimSpace(tc.header) {
					t.Fatalf("expected a minted id, got original %q", echoed)
				}
			} else if echoed != tc.header {
				t.Fatalf("expected header %q preserved, got %q", tc.header, echoed)
			}
		})
	}
}

func TestSanitizeSessionValue(t *testing.T) {
	if got := sanitizeSessionValue(" abc-1_B "); got != "abc-1_B" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	for _, bad := range []string{"", "has space", "semi;colon", "ação", strings.Repeat("x", 129)} {
		if got := sanitizeSessionValue(bad); got != "" {
			t.Fatalf("sanitizeSessionValue(%q) = %q, want empty", bad, got)
		}
	}
}
