package model

import "time"

// Roles carried in the users table and in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User statuses.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// User represents an application user record as stored in the `users`
// table.  PasswordHash is never serialised.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique, lower-cased email address.
//  Phone        – optional contact number.
//  PasswordHash – bcrypt hashed password.
//  Role         – user or admin.
//  Status       – active or inactive.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
