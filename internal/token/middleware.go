package token

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithPrincipal stores the authenticated principal in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// FromContext returns the principal set by the middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(Principal)
	if !ok || p.Subject == "" {
		return Principal{}, false
	}
	return p, true
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", ErrMalformedToken
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", ErrMalformedToken
	}
	return tok, nil
}

// Middleware rejects requests without a valid bearer token before next runs.
// Every credential failure yields the same 401 body.
func (s *Service) Middleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r.Header.Get("Authorization"))
			var p *Principal
			if err == nil {
				p, err = s.Validate(r.Context(), raw)
			}
			if err != nil {
				if IsInvalid(err) {
					logger.Debugw("bearer token rejected", "path", r.URL.Path, "reason", err)
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
					utilities.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
					return
				}
				logger.Errorw("bearer token check failed", "path", r.URL.Path, "err", err)
				utilities.WriteError(w, http.StatusInternalServerError, "Internal server error", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *p)))
		})
	}
}

// RunSweeper purges expired denylist entries every interval until ctx ends.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration, logger *zap.SugaredLogger) {
	if s.revoked == nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				logger.Warnw("purge revoked tokens", "err", err)
				continue
			}
			if n > 0 {
				logger.Debugw("purged revoked tokens", "count", n)
			}
		}
	}
}
