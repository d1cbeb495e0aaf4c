// Package users manages the members of a tenant.
package users

import (
	"strings"
	"time"

	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// User represents a tenant member account.
type User struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      rbac.Role `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser is the row inserted by Create.
type NewUser struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	FullName     string
	Role         rbac.Role
}

// CreateInput is the invite request of a tenant admin. Role defaults to user;
// super_admin cannot be granted through the API.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=user tenant_admin"`
}

// Normalize folds the email and applies the default role.
func (in *CreateInput) Normalize() {
	in.Email = shared.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = string(rbac.RoleUser)
	}
}

// UpdateInput is a partial user update. Role and IsActive are administrative fields.
type UpdateInput struct {
	FullName *string `json:"fullName" validate:"omitempty,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=user tenant_admin"`
	IsActive *bool   `json:"isActive"`
}

// Normalize trims the name.
func (in *UpdateInput) Normalize() {
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		in.FullName = &name
	}
}

func (in UpdateInput) administrative() bool {
	return in.Role != nil || in.IsActive != nil
}

func (in UpdateInput) empty() bool {
	return in.FullName == nil && !in.administrative()
}

// ListFilters narrows a tenant's member listing.
type ListFilters struct {
	Role string
}
