package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/devgate/swagsync/registry"
)

// hostPolicy decides whether a host may be dialed even when it resolves to
// a private-range address.
type hostPolicy func(host string) bool

// registryHosts builds a policy admitting hosts named in the module
// registry. Module URLs are operator-curated and usually point at internal
// services, so a module_id merge must reach addresses an agent-supplied URL
// may not. An unreadable registry admits nothing.
func registryHosts(reg *registry.Registry) hostPolicy {
	return func(host string) bool {
		modules, err := reg.All()
		if err != nil {
			return false
		}
		for _, m := range modules {
			u, err := url.Parse(m.URL)
			if err == nil && u.Hostname() == host {
				return true
			}
		}
		return false
	}
}

// isBlockedIP returns true if the IP is private, loopback, link-local, or unspecified.
func isBlockedIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

// newSafeHTTPClient creates the client behind agent-driven swagger fetches.
// Hosts resolving to private, loopback, or link-local addresses are refused
// unless the policy admits the host, and redirect targets are re-checked so
// a public host cannot bounce the request inward.
func newSafeHTTPClient(allowed hostPolicy) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	resolve := func(ctx context.Context, host string) ([]net.IPAddr, error) {
		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("no IP addresses found for host: %s", host)
		}
		if allowed != nil && allowed(host) {
			return ips, nil
		}
		for _, ipAddr := range ips {
			if isBlockedIP(ipAddr.IP) {
				return nil, fmt.Errorf("blocked request to private/loopback IP: %s (%s)", host, ipAddr.IP)
			}
		}
		return ips, nil
	}

	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolve(ctx, host)
				if err != nil {
					return nil, err
				}
				// Dial the first resolved address.
				return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			_, err := resolve(req.Context(), req.URL.Hostname())
			return err
		},
	}
}
