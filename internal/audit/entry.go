// Package audit records and reads the append-only log of state-changing actions.
package audit

import "time"

// Actions recorded by the API.
const (
	ActionRegisterTenant   = "REGISTER_TENANT"
	ActionUpdateTenant     = "UPDATE_TENANT"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionCreateProject    = "CREATE_PROJECT"
	ActionUpdateProject    = "UPDATE_PROJECT"
	ActionDeleteProject    = "DELETE_PROJECT"
	ActionCreateTask       = "CREATE_TASK"
	ActionUpdateTask       = "UPDATE_TASK"
	ActionUpdateTaskStatus = "UPDATE_TASK_STATUS"
	ActionDeleteTask       = "DELETE_TASK"
)

// Entity types.
const (
	EntityTenant  = "tenant"
	EntityUser    = "user"
	EntityProject = "project"
	EntityTask    = "task"
)

// Entry is one immutable audit record. ID and Timestamp are filled by the Recorder.
type Entry struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId,omitempty"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	IP         string    `json:"ip,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
