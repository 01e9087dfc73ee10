package dto

import "github.com/noah-isme/procurement-api/internal/models"

// UserListQuery captures admin user listing parameters.
type UserListQuery struct {
	Role     string `form:"role"`
	Pending  *bool  `form:"pending"`
	Archived *bool  `form:"archived"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// UserAdminUpdate is the admin-editable subset of a user.
type UserAdminUpdate struct {
	Role       *models.UserRole `json:"role" validate:"omitempty,oneof=ADMIN LECTURER"`
	SuperAdmin *bool            `json:"superAdmin"`
	Approved   *bool            `json:"approved"`
	Archived   *bool            `json:"archived"`
}

// CountdownSetting is the body of the countdown flag endpoints.
type CountdownSetting struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
