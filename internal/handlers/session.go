package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vitrine-atacado/api/internal/platform/requestctx"
)

// SessionHeader carries the cart session identifier between client and API.
const SessionHeader = "X-Session-ID"

const maxSessionIDLength = 128

// SessionMiddleware resolves the cart session from the request header,
// minting a fresh identifier when the client has none. The resolved value is
// echoed back so the client can persist it.
func SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sanitizeSessionValue(r.Header.Get(SessionHeader))
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			w.Header().Set(SessionHeader, sessionID)
			ctx := requestctx.WithSessionID(r.Context(), sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sanitizeSessionValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxSessionIDLength {
		return ""
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ""
		}
	}
	return raw
}
