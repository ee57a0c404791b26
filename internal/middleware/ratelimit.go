package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// fixedWindow counts attempts per client IP in fixed windows.
type fixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*windowCount
}

type windowCount struct {
	n     int
	start time.Time
}

// allow records one attempt for ip and reports whether it is within the
// limit, plus the time left until the window resets.
func (w *fixedWindow) allow(ip string, now time.Time) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wc, ok := w.clients[ip]
	if !ok || now.Sub(wc.start) >= w.window {
		w.clients[ip] = &windowCount{n: 1, start: now}
		return true, 0
	}
	wc.n++
	return wc.n <= w.limit, w.window - now.Sub(wc.start)
}

func (w *fixedWindow) sweep(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ip, wc := range w.clients {
		if now.Sub(wc.start) >= w.window {
			delete(w.clients, ip)
		}
	}
}

// RateLimit allows limit requests per client IP per window and answers 429
// with Retry-After beyond that. State is per process and per route it is
// attached to (login, OTP issue, OTP verify).
func RateLimit(limit int, window time.Duration) echo.MiddlewareFunc {
	w := &fixedWindow{limit: limit, window: window, clients: make(map[string]*windowCount)}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for now := range ticker.C {
			w.sweep(now)
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := w.allow(c.RealIP(), time.Now())
			if !ok {
				secs := int(retryAfter.Round(time.Second) / time.Second)
				c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(max(secs, 1)))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts. Please try again later.")
			}
			return next(c)
		}
	}
}
