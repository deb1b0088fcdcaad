package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta identifies the device and network origin of a websocket
// handshake, carried into connection event payloads.
type RequestMeta struct {
	DeviceID string
	IP       string
}

// MetaFromRequest extracts the client device id and IP. The first
// X-Forwarded-For hop wins over the socket peer address.
func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		DeviceID: r.Header.Get("X-Device-Id"),
		IP:       clientIP(r),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
