package entity

import "time"

// TodoItem is a to-do entry. OwnerID is stamped from the authenticated
// identity at creation and never changes afterwards.
type TodoItem struct {
	ID         int64     `db:"id" json:"id"`
	OwnerID    string    `db:"owner_id" json:"ownerId"`
	Name       string    `db:"name" json:"name"`
	IsComplete bool      `db:"is_complete" json:"isComplete"`
	Version    int64     `db:"version" json:"version"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
