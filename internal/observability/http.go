package observability

import (
	"net"
	"net/http"
	"strings"
)

// Client identifies the caller of a request for events and logs.
type Client struct {
	DeviceID  string
	RequestID string
	IP        string
}

// ClientFromRequest reads the client identity headers. Missing headers stay empty.
func ClientFromRequest(r *http.Request) Client {
	return Client{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: RequestIDFromRequest(r),
		IP:        IPFromRequest(r),
	}
}

// RequestIDFromRequest accepts both the X-Request-Id and the older X-Correlation-Id header.
func RequestIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Request-Id")); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get("X-Correlation-Id"))
}

// IPFromRequest prefers the first X-Forwarded-For hop over the socket address.
func IPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
