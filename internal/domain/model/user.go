package model

import "time"

// User is an account record: an admin or operator who logs in with email and
// password.
type User struct {
	ID           string     `json:"id"                   db:"id"`
	Email        string     `json:"email"                db:"email"`
	PasswordHash string     `json:"-"                    db:"password_hash"`
	Roles        []Role     `json:"roles"                db:"roles"`
	Active       bool       `json:"is_active"            db:"is_active"`
	// AssignedDistricts scopes operator visibility over farmer records. An
	// empty list means the operator sees nothing; only ADMIN is unrestricted.
	AssignedDistricts []string   `json:"assigned_districts"   db:"assigned_districts"`
	LastLogin         *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedBy         string     `json:"created_by"           db:"created_by"`
	CreatedAt         time.Time  `json:"created_at"           db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"           db:"updated_at"`
}

// CreateUserRequest carries the fields for registering a new account.
type CreateUserRequest struct {
	Email             string   `json:"email"`
	Password          string   `json:"password"`
	Roles             []string `json:"roles"`
	AssignedDistricts []string `json:"assigned_districts,omitempty"`
}
