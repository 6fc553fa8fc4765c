package http

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fyrsmithlabs/reductiond/internal/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// publicPrefixes bypass authentication and rate limiting.
var publicPrefixes = []string{"/health", "/api/system/health", "/metrics"}

func isPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// requestLogger attaches request and client ids to the request context and
// writes one access log line per request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
			ctx = logging.WithClientID(ctx, clientID(c))
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := append(logging.ContextFields(ctx),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Int64("size", c.Response().Size),
				zap.Duration("duration", time.Since(start)),
			)
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				logger.Error("http request", fields...)
			case status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		}
	}
}

// extractAPIKey reads the key from x-api-key, or from an Authorization
// header with the Bearer or ApiKey scheme.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get(echo.HeaderAuthorization)
	for _, scheme := range []string{"Bearer ", "ApiKey "} {
		if strings.HasPrefix(auth, scheme) {
			return auth[len(scheme):]
		}
	}
	return ""
}

// clientID identifies a caller for rate limiting: a fingerprint of the
// presented key joined with the remote address. The raw key never leaves
// this function.
func clientID(c echo.Context) string {
	key := extractAPIKey(c.Request())
	if key == "" {
		return "anonymous:" + c.RealIP()
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16] + ":" + c.RealIP()
}

// apiKeyAuth rejects non-public requests without the configured key.
// An empty key disables the check.
func apiKeyAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" || isPublic(c.Request().URL.Path) {
				return next(c)
			}

			provided := extractAPIKey(c.Request())
			if provided == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{
					Error:   "authentication_required",
					Message: "API key required",
				})
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, ErrorResponse{Error: "invalid_api_key"})
			}
			return next(c)
		}
	}
}

// rateLimit enforces limiter per client id and sets X-RateLimit headers on
// every limited response.
func rateLimit(limiter *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublic(c.Request().URL.Path) {
				return next(c)
			}

			d := limiter.Allow(clientID(c))

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if !d.Allowed {
				retry := int(math.Ceil(d.RetryAfter.Seconds()))
				h.Set("Retry-After", strconv.Itoa(retry))
				return echo.NewHTTPError(http.StatusTooManyRequests, ErrorResponse{
					Error:      "rate_limit_exceeded",
					RetryAfter: retry,
				})
			}
			return next(c)
		}
	}
}
