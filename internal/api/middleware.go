package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"discuss/internal/auth"
	"discuss/internal/ratelimit"
)

// authMiddleware requires a bearer token matching apiKeyHash. An empty hash
// disables the check.
func authMiddleware(apiKeyHash string, next http.Handler) http.Handler {
	if apiKeyHash == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Authorize(r.Header.Get("Authorization"), apiKeyHash); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// searchRateLimitMiddleware allows each client address perMinute searches in
// any sliding minute. A limit of zero or less disables it.
func searchRateLimitMiddleware(limiter *ratelimit.Limiter, perMinute int, next http.Handler) http.Handler {
	if perMinute <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := limiter.Allow("search:"+clientKey(r), perMinute, time.Minute, time.Now().UTC())
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if !res.Allowed {
			retryAfter := int(time.Until(res.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded: search")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by remote host. Request parameters are
// caller-controlled and never part of the key.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
