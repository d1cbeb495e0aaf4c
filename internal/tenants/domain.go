// Package tenants implements tenant registration and tenant administration.
package tenants

import (
	"strings"
	"time"

	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Tenant statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusTrial     = "trial"
)

// Subscription plans.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Ceilings applied to a newly registered tenant on the free plan.
const (
	FreeMaxUsers    = 5
	FreeMaxProjects = 3
)

// Tenant is an isolated customer organisation.
type Tenant struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	Status           string    `json:"status"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	MaxUsers         int       `json:"maxUsers"`
	MaxProjects      int       `json:"maxProjects"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Stats are live entity counts of one tenant.
type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalProjects int `json:"totalProjects"`
	TotalTasks    int `json:"totalTasks"`
}

// Details is a tenant with its stats.
type Details struct {
	Tenant
	Stats Stats `json:"stats"`
}

// Summary is one row of the platform-wide tenant listing.
type Summary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	Status           string    `json:"status"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	TotalUsers       int       `json:"totalUsers"`
	TotalProjects    int       `json:"totalProjects"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ListFilters narrows the tenant listing.
type ListFilters struct {
	Status           string
	SubscriptionPlan string
	Page             int
	PerPage          int
}

// ListResult is a page of tenants.
type ListResult struct {
	Tenants    []Summary         `json:"tenants"`
	Pagination shared.Pagination `json:"pagination"`
}

// RegisterInput is the self-service signup request.
type RegisterInput struct {
	TenantName    string `json:"tenantName" validate:"required,max=255"`
	Subdomain     string `json:"subdomain" validate:"required,min=3,max=63,dns_rfc1035_label"`
	AdminEmail    string `json:"adminEmail" validate:"required,email,max=255"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8,max=72"`
	AdminFullName string `json:"adminFullName" validate:"required,max=255"`
}

// Normalize canonicalises the subdomain and email.
func (in *RegisterInput) Normalize() {
	in.TenantName = strings.TrimSpace(in.TenantName)
	in.Subdomain = shared.NormalizeSubdomain(in.Subdomain)
	in.AdminEmail = shared.NormalizeEmail(in.AdminEmail)
	in.AdminFullName = strings.TrimSpace(in.AdminFullName)
}

// AdminUser is the first tenant_admin created at registration.
type AdminUser struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Role     rbac.Role `json:"role"`
}

// Registration is the result of a successful signup.
type Registration struct {
	TenantID  string    `json:"tenantId"`
	Subdomain string    `json:"subdomain"`
	AdminUser AdminUser `json:"adminUser"`
}

// NewAdmin is the admin row inserted at registration.
type NewAdmin struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	FullName     string
}

// UpdateInput is a partial tenant update. Nil fields are left unchanged.
type UpdateInput struct {
	Name             *string `json:"name" validate:"omitempty,max=255"`
	Status           *string `json:"status" validate:"omitempty,oneof=active suspended trial"`
	SubscriptionPlan *string `json:"subscriptionPlan" validate:"omitempty,oneof=free pro enterprise"`
	MaxUsers         *int    `json:"maxUsers" validate:"omitempty,min=0"`
	MaxProjects      *int    `json:"maxProjects" validate:"omitempty,min=0"`
}

// Normalize trims the name.
func (in *UpdateInput) Normalize() {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
}

// managed reports whether the update touches fields reserved to super_admin.
func (in UpdateInput) managed() bool {
	return in.Status != nil || in.SubscriptionPlan != nil || in.MaxUsers != nil || in.MaxProjects != nil
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && !in.managed()
}
