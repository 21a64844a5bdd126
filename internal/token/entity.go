package token

import "time"

// Subject is anything a token can be issued for.
type Subject interface {
	SubjectID() string
}

// Issued is a freshly minted bearer token.
type Issued struct {
	Token     string
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the authenticated identity attached to a request after the
// bearer token has been verified.
type Principal struct {
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
