package token

import "errors"

var (
	ErrConfig           = errors.New("invalid token config")
	ErrNoSubject        = errors.New("token subject is required")
	ErrMissingToken     = errors.New("missing bearer token")
	ErrMalformedToken   = errors.New("malformed bearer token")
	ErrExpiredToken     = errors.New("token expired")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrRevokedToken     = errors.New("token revoked")
)

// IsInvalid reports whether err is a credential failure (as opposed to an
// infrastructure error while checking the credential).
func IsInvalid(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrRevokedToken)
}
