package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies makes c.RealIP() honour X-Real-IP and X-Forwarded-For only
// when the peer is inside one of the given CIDRs. Casa runs behind the Gluu
// Server's Apache, so without it every client shares the proxy's address.
func TrustedProxies(e *echo.Echo, cidrs []string) {
	e.IPExtractor = buildIPExtractor(cidrs)
}

func buildIPExtractor(cidrs []string) echo.IPExtractor {
	proxies := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		proxies = append(proxies, p.Masked())
	}

	trusted := func(ip string) bool {
		addr, err := netip.ParseAddr(ip)
		if err != nil {
			return false
		}
		addr = addr.Unmap()
		for _, p := range proxies {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(req *http.Request) string {
		peer, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			peer = req.RemoteAddr
		}
		if !trusted(peer) {
			return peer
		}

		if ip := strings.TrimSpace(req.Header.Get(echo.HeaderXRealIP)); ip != "" {
			return ip
		}

		// Walk X-Forwarded-For from the right, skipping our own proxies.
		hops := strings.Split(req.Header.Get(echo.HeaderXForwardedFor), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !trusted(hop) {
				return hop
			}
		}
		return peer
	}
}
