package entity

import (
	"time"
)

type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleSupport UserRole = "support"
	RoleDoctor  UserRole = "doctor"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleSupport, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may act on other users' resources.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleSupport, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID              string    `json:"id" firestore:"id"`
	Email           string    `json:"email" firestore:"email"`
	Name            string    `json:"name" firestore:"name"`
	Role            UserRole  `json:"role" firestore:"role"`
	IsActive        bool      `json:"is_active" firestore:"isActive"`
	IsEmailVerified bool      `json:"is_email_verified" firestore:"isEmailVerified"`
	LastSeen        time.Time `json:"last_seen" firestore:"lastSeen"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Summary is the shape embedded in chat responses when resolving senders
// and participants.
type UserSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
