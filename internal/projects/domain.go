// Package projects implements tenant-owned projects.
package projects

import (
	"strings"
	"time"
)

// Project statuses.
const (
	StatusActive    = "active"
	StatusArchived  = "archived"
	StatusCompleted = "completed"
)

// Project groups tasks inside one tenant. TenantID never changes after creation.
type Project struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatorName string    `json:"createdByName,omitempty"`
	TaskCount   int       `json:"taskCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProject is the row inserted by Create.
type NewProject struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	Status      string
	CreatedBy   string
}

// CreateInput is the create request.
type CreateInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Status      string `json:"status" validate:"omitempty,oneof=active archived completed"`
}

// Normalize trims text and applies the default status.
func (in *CreateInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = StatusActive
	}
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Status      *string `json:"status" validate:"omitempty,oneof=active archived completed"`
}

// Normalize trims text fields.
func (in *UpdateInput) Normalize() {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		in.Description = &desc
	}
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.Status == nil
}

// ListFilters narrows a project listing. TenantID is required for super_admin only.
type ListFilters struct {
	TenantID string
	Status   string
}
