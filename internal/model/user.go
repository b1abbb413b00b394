package model

import "time"

// Roles stored in users.role.
const (
    RoleAdmin  = "admin"
    RoleClient = "client"
)

// User represents an account record as stored in the `users` table.  The
// json tags are omitted because handlers shape their own responses; the
// password hash must never leave the process.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – admin or client.
//  CompanyID    – owning company (nil for staff accounts).
//  IsActive     – whether the account may sign in.
type User struct {
    ID           uint64    // users.id
    FirstName    string    // users.first_name
    LastName     string    // users.last_name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CompanyID    *uint64   // users.company_id (nullable)
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the account belongs to the back office.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Company models a row of the `companies` table.  One company owns zero or
// more users.
type Company struct {
    ID        uint64    // companies.id
    Name      string    // companies.name
    Email     string    // companies.email
    Phone     string    // companies.phone
    Address   string    // companies.address
    CreatedAt time.Time // companies.created_at
}

// ClientSummary is the admin view of a client account joined with its company.
type ClientSummary struct {
    UserID      uint64  `json:"user_id"`
    FirstName   string  `json:"first_name"`
    LastName    string  `json:"last_name"`
    Email       string  `json:"email"`
    IsActive    bool    `json:"is_active"`
    CompanyID   *uint64 `json:"company_id,omitempty"`
    CompanyName *string `json:"company_name,omitempty"`
}
