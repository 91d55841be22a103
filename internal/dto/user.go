package dto

import (
	"strings"

	"github.com/AminArria/sponsorly/internal/domain"
)

// CreateUserRequest represents request to create a user
type CreateUserRequest struct {
	Slug  string `json:"slug" binding:"required,slug,max=100"`
	Email string `json:"email" binding:"required,email,max=254"`
	Name  string `json:"name" binding:"max=200"`
}

// Validate normalizes the request and checks slug and email
func (r *CreateUserRequest) Validate() *domain.ValidationError {
	r.Slug = strings.TrimSpace(r.Slug)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	return Validate(r)
}

// UserResponse represents user data in response
type UserResponse struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// ToUserResponse converts domain.User to UserResponse
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Slug:      u.Slug,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: FormatTime(u.CreatedAt),
	}
}
