package domain

import "time"

// User is a newsletter creator or sponsor. Accounts are managed elsewhere;
// this service only needs id, slug and contact details.
type User struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
