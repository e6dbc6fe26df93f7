package middleware

import (
	"net"
	"net/http"
	"strings"
)

// clientIP keys rate limits and request logs. It reads RemoteAddr only;
// forwarding headers are client controlled and ignored.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
