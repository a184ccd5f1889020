// Package middleware provides HTTP middleware for the StayBridge server.
package middleware

import (
	"context"
	"strings"
	"time"

	pkglog "StayBridge/pkg/log"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Logging returns a middleware that logs every HTTP request.
// It generates a request id, flags slow requests, and injects the request
// context so downstream log calls carry correlation fields.
//
// Example output:
//
//	🟢 POST /v1/messages - 202 (42ms) | RequestID: mgrn0zfqda
//	🐌 [mgrn0zfqda] Slow request detected | GET /healthz | 3438ms
func Logging(logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var (
				method        string
				path          string
				ip            string
				userAgent     string
				requestID     string
				guestID       string
				reservationID string
			)

			if tr, ok := transport.FromServerContext(ctx); ok {
				method = tr.Operation()
				path = tr.Operation()

				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()
					method = httpReq.Method
					path = httpReq.URL.Path
					if httpReq.URL.RawQuery != "" {
						path = path + "?" + httpReq.URL.RawQuery
					}

					ip = extractClientIP(httpReq)
					userAgent = httpReq.Header.Get("User-Agent")

					requestID = httpReq.Header.Get("X-Request-ID")
					if requestID == "" {
						requestID = pkglog.GenerateRequestID()
					}

					// Conversation-level correlation supplied by the
					// assistant frontend, when present.
					guestID = httpReq.Header.Get("X-Guest-ID")
					reservationID = httpReq.Header.Get("X-Reservation-ID")
				}
			}

			ctx = pkglog.WithRequestContext(ctx, requestID, guestID, reservationID)

			reply, err := handler(ctx, req)

			duration := time.Since(startTime).Milliseconds()

			status := 200
			if err != nil {
				status = extractHTTPStatus(err)
			}

			logger.RequestWithContext(ctx, method, path, status, duration,
				"ip", ip,
				"user_agent", userAgent,
			)

			return reply, err
		}
	}
}

// extractClientIP returns the client IP, preferring proxy headers.
// Priority: X-Real-IP > X-Forwarded-For > RemoteAddr.
func extractClientIP(req *http.Request) string {
	if ip := req.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	return req.RemoteAddr
}

// extractHTTPStatus maps a handler error to its HTTP status code.
func extractHTTPStatus(err error) int {
	if err == nil {
		return 200
	}
	if se := kerrors.FromError(err); se != nil {
		return int(se.Code)
	}
	return 500
}
