package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type FamilyMember struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"family_id"`
	UserID      *string   `json:"user_id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	AvatarColor string    `json:"avatar_color"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
