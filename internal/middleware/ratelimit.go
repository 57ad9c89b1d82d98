package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	internal_errors "github.com/breemind-dev/breemind/internal/errors"
	"github.com/breemind-dev/breemind/internal/middleware/ratelimiter"
	"github.com/breemind-dev/breemind/internal/utils"
)

func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GlobalRateLimit(rl *ratelimiter.UserRateLimiter) func(http.Handler) http.Handler {
	return RateLimit(rl, func(r *http.Request) (string, error) { return "global", nil })
}

// GetIP extracts the real client IP from RemoteAddr
// Does NOT trust X-Real-IP or X-Forwarded-For headers (no reverse proxy)
func GetIP(r *http.Request) (string, error) {
	// Only trust RemoteAddr - can't be spoofed (comes from TCP connection)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// Fallback: if RemoteAddr doesn't have port, use it directly
		ip = r.RemoteAddr
	}

	if net.ParseIP(ip) == nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("invalid IP address: %s", ip), StatusCode: http.StatusBadRequest}
	}

	return ip, nil
}

// GetEmailFromBody extracts email from the JSON request body for rate
// limiting purposes. It reads the body and restores it so the handler can
// read it again. Malformed input is a client error, not a server one, even
// though it surfaces before the handler's own validation.
func GetEmailFromBody(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: "failed to read request body", StatusCode: http.StatusBadRequest}
	}
	// Restore the body so the handler can read it
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	var data struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}

	if data.Email == "" {
		return "", &internal_errors.ErrorWithStatusCode{Message: "email field is required", StatusCode: http.StatusBadRequest, Field: "email"}
	}

	return data.Email, nil
}
