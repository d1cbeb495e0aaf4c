// Package tasks implements the work items of a project.
package tasks

import (
	"strings"
	"time"
)

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// Task is a work item. TenantID always equals the parent project's tenant.
type Task struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	TenantID     string    `json:"tenantId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	AssignedTo   *string   `json:"assignedTo"`
	AssigneeName string    `json:"assigneeName,omitempty"`
	DueDate      *string   `json:"dueDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewTask is the row inserted by Create.
type NewTask struct {
	ID          string
	ProjectID   string
	TenantID    string
	Title       string
	Description string
	Priority    string
	AssignedTo  *string
	DueDate     *time.Time
}

// CreateInput is the create request. New tasks always start as todo.
type CreateInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  string `json:"assignedTo" validate:"omitempty,uuid"`
	DueDate     string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// Normalize trims text and applies the default priority.
func (in *CreateInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	in.DueDate = strings.TrimSpace(in.DueDate)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
}

// UpdateInput is a partial update. Omitted fields are unchanged; an empty
// assignedTo unassigns and an empty dueDate clears the date.
type UpdateInput struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Status      *string `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  *string `json:"assignedTo" validate:"omitempty,uuid"`
	DueDate     *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// Normalize trims text fields.
func (in *UpdateInput) Normalize() {
	for _, f := range []**string{&in.Title, &in.Description, &in.AssignedTo, &in.DueDate} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil &&
		in.Priority == nil && in.AssignedTo == nil && in.DueDate == nil
}

// StatusInput is the status-only update.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress completed"`
}

// Changes is an update resolved for storage.
type Changes struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	SetAssignee bool
	AssignedTo  *string
	SetDueDate  bool
	DueDate     *time.Time
}

// ListFilters narrows a project's task listing.
type ListFilters struct {
	Status     string
	Priority   string
	AssignedTo string
}
