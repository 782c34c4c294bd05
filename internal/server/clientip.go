package server

import (
	"net/http"
	"strings"
)

// clientIP resolves the caller's address using proxy-header precedence:
// CF-Connecting-IP, then X-Real-IP, then the first X-Forwarded-For hop,
// then the raw connection address.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return normalizeIP(ip)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return normalizeIP(ip)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.Split(xff, ",")[0]
		if ip := strings.TrimSpace(first); ip != "" {
			return normalizeIP(ip)
		}
	}

	addr := r.RemoteAddr
	// Strip the port; RemoteAddr is host:port, with IPv6 hosts bracketed.
	if i := strings.LastIndex(addr, ":"); i != -1 && strings.Count(addr, ":") == 1 {
		addr = addr[:i]
	} else if strings.HasPrefix(addr, "[") {
		if j := strings.Index(addr, "]"); j != -1 {
			addr = addr[1:j]
		}
	}
	return normalizeIP(addr)
}

// normalizeIP collapses IPv4-mapped IPv6 and loopback spellings into their
// canonical IPv4 forms.
func normalizeIP(ip string) string {
	ip = strings.TrimPrefix(ip, "::ffff:")
	if ip == "::1" {
		return "127.0.0.1"
	}
	return ip
}
