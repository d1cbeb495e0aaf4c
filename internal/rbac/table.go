package rbac

import (
	"fmt"
	"sort"

	"github.com/tenantflow/tenantflow/internal/shared"
)

// Action names one guarded operation of the API.
type Action string

const (
	ActionTenantList   Action = "tenant.list"
	ActionTenantRead   Action = "tenant.read"
	ActionTenantUpdate Action = "tenant.update"
	ActionTenantManage Action = "tenant.manage"

	ActionUserCreate Action = "user.create"
	ActionUserList   Action = "user.list"
	ActionUserUpdate Action = "user.update"
	ActionUserManage Action = "user.manage"
	ActionUserDelete Action = "user.delete"

	ActionProjectCreate Action = "project.create"
	ActionProjectList   Action = "project.list"
	ActionProjectRead   Action = "project.read"
	ActionProjectUpdate Action = "project.update"
	ActionProjectDelete Action = "project.delete"

	ActionTaskCreate Action = "task.create"
	ActionTaskList   Action = "task.list"
	ActionTaskRead   Action = "task.read"
	ActionTaskUpdate Action = "task.update"
	ActionTaskDelete Action = "task.delete"

	ActionAuditList Action = "audit.list"
)

// Target carries the resource attributes a rule may inspect.
type Target struct {
	TenantID  string
	CreatedBy string
	UserID    string
}

// Rule builds the condition guarding one action.
type Rule struct {
	Summary string
	Build   func(t Target) Condition
}

// Policies is the complete role table. Task mutations require only a tenant
// match: tasks are shared work items any member of the tenant may update or close.
var Policies = map[Action]Rule{
	ActionTenantList: {
		Summary: "super_admin",
		Build:   func(Target) Condition { return RoleAtLeast(RoleSuperAdmin) },
	},
	ActionTenantRead: {
		Summary: "tenant_admin of the tenant, or super_admin",
		Build: func(t Target) Condition {
			return All(RoleAtLeast(RoleTenantAdmin), TenantMatch(t.TenantID))
		},
	},
	ActionTenantUpdate: {
		Summary: "tenant_admin of the tenant (name only), or super_admin",
		Build: func(t Target) Condition {
			return All(RoleAtLeast(RoleTenantAdmin), TenantMatch(t.TenantID))
		},
	},
	ActionTenantManage: {
		Summary: "super_admin (status, plan, limits)",
		Build:   func(Target) Condition { return RoleAtLeast(RoleSuperAdmin) },
	},
	ActionUserCreate: {
		Summary: "tenant_admin of the tenant, or super_admin",
		Build: func(t Target) Condition {
			return All(RoleAtLeast(RoleTenantAdmin), TenantMatch(t.TenantID))
		},
	},
	ActionUserList: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionUserUpdate: {
		Summary: "the user themself, or tenant_admin of the tenant",
		Build: func(t Target) Condition {
			return All(TenantMatch(t.TenantID), SelfOrRole(t.UserID, RoleTenantAdmin))
		},
	},
	ActionUserManage: {
		Summary: "tenant_admin of the tenant on another user (role, active flag)",
		Build: func(t Target) Condition {
			return All(TenantMatch(t.TenantID), RoleAtLeast(RoleTenantAdmin), NotSelf(t.UserID))
		},
	},
	ActionUserDelete: {
		Summary: "tenant_admin of the tenant, never self",
		Build: func(t Target) Condition {
			return All(TenantMatch(t.TenantID), RoleAtLeast(RoleTenantAdmin), NotSelf(t.UserID))
		},
	},
	ActionProjectCreate: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionProjectList: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionProjectRead: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionProjectUpdate: {
		Summary: "creator or tenant_admin of the tenant",
		Build: func(t Target) Condition {
			return All(TenantMatch(t.TenantID), CreatorOrRole(t.CreatedBy, RoleTenantAdmin))
		},
	},
	ActionProjectDelete: {
		Summary: "creator or tenant_admin of the tenant",
		Build: func(t Target) Condition {
			return All(TenantMatch(t.TenantID), CreatorOrRole(t.CreatedBy, RoleTenantAdmin))
		},
	},
	ActionTaskCreate: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionTaskList: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionTaskRead: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionTaskUpdate: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionTaskDelete: {
		Summary: "any member of the tenant",
		Build:   func(t Target) Condition { return TenantMatch(t.TenantID) },
	},
	ActionAuditList: {
		Summary: "tenant_admin of the tenant, or super_admin",
		Build: func(t Target) Condition {
			return All(RoleAtLeast(RoleTenantAdmin), TenantMatch(t.TenantID))
		},
	},
}

// Authorize evaluates the policy row for action. Unknown actions are denied.
func Authorize(p Principal, action Action, t Target) error {
	rule, ok := Policies[action]
	if !ok {
		return fmt.Errorf("%w: no policy for %s", shared.ErrForbidden, action)
	}
	if err := Check(p, rule.Build(t)); err != nil {
		return fmt.Errorf("%w: %s requires %s", err, action, rule.Summary)
	}
	return nil
}

// Actions lists every action in the table in lexical order.
func Actions() []Action {
	actions := make([]Action, 0, len(Policies))
	for a := range Policies {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}
