package middleware

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

// ClientContext records the client address and user agent in the request
// context, so that service logs can attribute mutations. Mount it after
// TrustedRealIP.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := core.ContextWithClient(r.Context(), ip, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
