package entity

import "time"

// Identity is a registered account (row in the `users` table). ID is a
// KSUID assigned at creation and never changes; Email is stored lower-cased
// and is unique.
type Identity struct {
	ID                string     `db:"id"`
	Email             string     `db:"email"`
	UserName          string     `db:"username"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	PasswordHash      string     `db:"password_hash"`
	PasswordAlgo      string     `db:"password_algo"`
	PasswordUpdatedAt *time.Time `db:"password_updated_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// SubjectID is the value carried in the bearer token's sub claim.
func (i *Identity) SubjectID() string { return i.ID }

// Profile is the public projection of an Identity.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (i *Identity) Profile() Profile {
	return Profile{ID: i.ID, Email: i.Email, FirstName: i.FirstName, LastName: i.LastName}
}
