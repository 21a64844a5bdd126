package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// RequestIDMiddleware tags each request with a snowflake id, reusing an
// inbound X-Request-ID when present.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" || len(id) > 64 {
				id = utilities.NewSnowflakeID()
				r.Header.Set("X-Request-ID", id)
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", r.Header.Get("X-Request-ID"),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RecoverMiddleware turns a handler panic into a generic 500.
func RecoverMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorw("panic in handler", "path", r.URL.Path, "panic", rec)
					utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			if r.TLS != nil {
				// 30 days
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Deps are the services the routes are built from.
type Deps struct {
	Logger   *zap.SugaredLogger
	Tokens   *token.Service
	Accounts *account.Service
	Todos    *todo.Service
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// Login, register and health are anonymous; every other route sits behind
// the bearer token middleware.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	authn := d.Tokens.Middleware(d.Logger)
	protected := func(h http.HandlerFunc) http.Handler { return authn(h) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	acct := account.NewHandler(d.Accounts, d.Tokens, d.Logger)
	mux.HandleFunc("POST /Account/Register", acct.Register)
	mux.HandleFunc("POST /Account/Login", acct.Login)
	mux.Handle("POST /Account/Logout", protected(acct.Logout))
	mux.Handle("PUT /Account/Edit", protected(acct.Edit))
	mux.Handle("GET /Account/Display", protected(acct.Display))
	mux.Handle("DELETE /Account/Delete", protected(acct.Delete))

	items := todo.NewHandler(d.Todos, d.Logger)
	mux.Handle("GET /api/TodoItems", protected(items.List))
	mux.Handle("POST /api/TodoItems", protected(items.Create))
	mux.Handle("GET /api/TodoItems/{id}", protected(items.Get))
	mux.Handle("PUT /api/TodoItems/{id}", protected(items.Update))
	mux.Handle("DELETE /api/TodoItems/{id}", protected(items.Delete))

	handler := RequestIDMiddleware()(LoggingMiddleware(d.Logger)(RecoverMiddleware(d.Logger)(SecurityHeadersMiddleware()(mux))))
	return handler
}
