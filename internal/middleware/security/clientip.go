// Package security holds the small HTTP hardening pieces of the webhook
// server: client IP resolution behind proxies and response headers.
package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
)

var defaultTrusted = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// IPResolver finds the caller's address. Forwarding headers are only
// honored when the direct peer is a trusted proxy.
type IPResolver struct {
	mu      sync.RWMutex
	trusted []*net.IPNet
}

func NewIPResolver() *IPResolver {
	r := &IPResolver{}
	for _, cidr := range defaultTrusted {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("parse trusted proxy %s: %v", cidr, err))
		}
		r.trusted = append(r.trusted, network)
	}
	return r
}

// AddTrustedProxy trusts forwarding headers from cidr.
func (r *IPResolver) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	r.mu.Lock()
	r.trusted = append(r.trusted, network)
	r.mu.Unlock()
	return nil
}

// ClientIP returns the first valid X-Forwarded-For entry, then X-Real-IP,
// then the direct peer address.
func (r *IPResolver) ClientIP(req *http.Request) string {
	direct, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		direct = req.RemoteAddr
	}

	ip := net.ParseIP(direct)
	if ip == nil || !r.isTrusted(ip) {
		return direct
	}

	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(req.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return direct
}

func (r *IPResolver) isTrusted(ip net.IP) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, network := range r.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
