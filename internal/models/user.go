package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleLecturer UserRole = "LECTURER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleLecturer
}

// User represents an application user stored in the users table.
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	Role            UserRole  `db:"role" json:"role"`
	SuperAdmin      bool      `db:"super_admin" json:"superAdmin"`
	PendingApproval bool      `db:"pending_approval" json:"pendingApproval"`
	Archived        bool      `db:"archived" json:"archived"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Pending  *bool
	Archived *bool
	Search   string
	Page     int
	PageSize int
}

// UserUpdate holds the admin-editable user columns. Nil fields are left untouched.
type UserUpdate struct {
	Role            *UserRole
	SuperAdmin      *bool
	PendingApproval *bool
	Archived        *bool
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
