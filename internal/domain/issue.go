package domain

import "time"

// Issue is one scheduled edition of a newsletter
type Issue struct {
	ID           string     `json:"id"`
	NewsletterID string     `json:"newsletter_id"`
	Name         string     `json:"name"`
	DueAt        time.Time  `json:"due_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the issue was soft deleted
func (i *Issue) IsDeleted() bool {
	return i.DeletedAt != nil
}
