package users

import "time"

// Role tiers stored in users.user_type, lowest privilege first.
const (
	RoleClient  = "CLIENT"
	RoleManager = "MANAGER"
	RoleAdmin   = "ADMIN"
)

// User represents a stored user row linked to a Firebase identity.
type User struct {
	ID            string    `json:"id"`
	FirebaseUID   string    `json:"firebase_uid"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	UserType      string    `json:"user_type"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateRoleRequest is the input for the administrative role change.
type UpdateRoleRequest struct {
	UserType string `json:"user_type"`
}

// ListUsersResponse wraps a list of users.
type ListUsersResponse struct {
	Items []User `json:"items"`
}
