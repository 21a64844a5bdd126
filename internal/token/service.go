package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

// RevocationStore is the jti denylist consulted on every validation.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service mints and verifies HS256 bearer tokens.
type Service struct {
	cfg     Config
	revoked RevocationStore
	// Now is the clock used for iat/exp; tests may replace it.
	Now func() time.Time
}

// NewService builds a token service. revoked may be nil, in which case
// tokens are purely stateless and Revoke is a no-op.
func NewService(cfg Config, revoked RevocationStore) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, revoked: revoked, Now: time.Now}, nil
}

// Issue signs a token for sub with a fresh jti and exp = now + Expiration.
// Only the subject id is encoded.
func (s *Service) Issue(sub Subject) (*Issued, error) {
	if sub == nil || sub.SubjectID() == "" {
		return nil, ErrNoSubject
	}
	now := s.Now().Truncate(jwt.TimePrecision)
	exp := now.Add(s.cfg.Expiration)
	jti := utilities.NewUUID()
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   sub.SubjectID(),
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        jti,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Issued{Token: signed, ID: jti, Subject: claims.Subject, IssuedAt: now, ExpiresAt: exp}, nil
}

// Validate verifies signature, algorithm, issuer, audience and expiry
// (now < exp), then consults the denylist.
func (s *Service) Validate(ctx context.Context, raw string) (*Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	p := &Principal{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}

// Revoke denylists the principal's token until it would have expired anyway.
// It reports whether the token was actually denylisted.
func (s *Service) Revoke(ctx context.Context, p Principal) (bool, error) {
	if s.revoked == nil || !s.cfg.RevokeOnLogout {
		return false, nil
	}
	if err := s.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return true, nil
}

// PurgeExpired drops denylist entries whose tokens have expired.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.revoked == nil {
		return 0, nil
	}
	return s.revoked.PurgeExpired(ctx, s.Now())
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
