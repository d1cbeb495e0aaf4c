package auth

import (
	"time"

	"github.com/tenantflow/tenantflow/internal/rbac"
)

// Account is a login identity as stored.
type Account struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	FullName     string
	Role         rbac.Role
	IsActive     bool
}

// Principal returns the token subject for the account.
func (a Account) Principal() rbac.Principal {
	return rbac.Principal{UserID: a.ID, TenantID: a.TenantID, Role: a.Role}
}

// TenantSummary is the tenant view embedded in login and profile responses.
type TenantSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Subdomain        string `json:"subdomain"`
	Status           string `json:"status"`
	SubscriptionPlan string `json:"subscriptionPlan"`
	MaxUsers         int    `json:"maxUsers"`
	MaxProjects      int    `json:"maxProjects"`
}

// LoginInput carries the login request.
type LoginInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	TenantSubdomain string `json:"tenantSubdomain" validate:"omitempty,max=63"`
}

// SessionUser is the user block returned at login.
type SessionUser struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Role     rbac.Role `json:"role"`
	TenantID *string   `json:"tenantId"`
}

// Session is the login result.
type Session struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      SessionUser `json:"user"`
}

// Profile is the current-user view.
type Profile struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Role     rbac.Role      `json:"role"`
	IsActive bool           `json:"isActive"`
	Tenant   *TenantSummary `json:"tenant"`
}
