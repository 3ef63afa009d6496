package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  PasswordHash and the reset token fields never leave the
// service, so they are excluded from JSON.
//
// Fields:
//  ID                  – UUID primary key.
//  Username            – display name chosen at registration.
//  Email               – unique, lower-cased email address.
//  PasswordHash        – bcrypt hashed password.
//  Role                – USER or ADMIN.
//  ResetTokenHash      – SHA-256 hex of the outstanding reset token, if any.
//  ResetTokenExpiresAt – expiry of that token.
type User struct {
    ID                  string     `json:"id"`
    Username            string     `json:"username"`
    Email               string     `json:"email"`
    PasswordHash        string     `json:"-"`
    Role                string     `json:"role"`
    ResetTokenHash      string     `json:"-"`
    ResetTokenExpiresAt *time.Time `json:"-"`
    CreatedAt           time.Time  `json:"createdAt"`
    UpdatedAt           time.Time  `json:"updatedAt"`
}
