package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/pagebound-server/internal/auth"
	domainerrors "github.com/listenupapp/pagebound-server/internal/errors"
	"github.com/listenupapp/pagebound-server/internal/ratelimit"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// readerIDKey is the context key for the authenticated reader ID.
const readerIDKey ctxKey = "readerID"

// ReaderID returns the authenticated reader from context.
func ReaderID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(readerIDKey).(string)
	return id, ok && id != ""
}

func withReaderID(ctx context.Context, readerID string) context.Context {
	return context.WithValue(ctx, readerIDKey, readerID)
}

// requireReader returns the authenticated reader or a 401.
func requireReader(ctx context.Context) (string, error) {
	id, ok := ReaderID(ctx)
	if !ok {
		return "", newAPIError(http.StatusUnauthorized, domainerrors.CodeUnauthorized, "Authentication required")
	}
	return id, nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authMiddleware verifies a bearer token when one is present and stores the
// reader in context. Requests without a valid token continue anonymously;
// handlers call requireReader.
func authMiddleware(tokens *auth.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "rejected bearer token", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withReaderID(r.Context(), claims.ReaderID)))
		})
	}
}

// writeRateLimit throttles mutating requests per reader, falling back to the
// client address for anonymous callers. Reads pass through.
func writeRateLimit(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key, ok := ReaderID(r.Context())
			if !ok {
				key = "ip:" + r.RemoteAddr
			}
			if !limiter.Allow(key) {
				logger.WarnContext(r.Context(), "rate limit exceeded", "key", key, "path", r.URL.Path)
				writeError(w, newAPIError(http.StatusTooManyRequests, domainerrors.CodeRateLimited, "Too many requests. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError renders an error envelope outside of huma.
func writeError(w http.ResponseWriter, e *APIError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.status)
	_ = json.NewEncoder(w).Encode(errorEnvelope(e))
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
