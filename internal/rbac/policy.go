package rbac

import "github.com/tenantflow/tenantflow/internal/shared"

// Condition is a pure allow/deny decision over a principal.
type Condition func(p Principal) bool

// RoleAtLeast allows principals with min authority or more.
func RoleAtLeast(min Role) Condition {
	return func(p Principal) bool {
		return p.Role.AtLeast(min)
	}
}

// SelfOrRole allows the target user themself or principals with min authority.
func SelfOrRole(targetUserID string, min Role) Condition {
	return func(p Principal) bool {
		return (targetUserID != "" && p.UserID == targetUserID) || p.Role.AtLeast(min)
	}
}

// CreatorOrRole allows the resource creator or principals with min authority.
func CreatorOrRole(createdBy string, min Role) Condition {
	return func(p Principal) bool {
		return (createdBy != "" && p.UserID == createdBy) || p.Role.AtLeast(min)
	}
}

// TenantMatch allows super admins and principals scoped to resourceTenantID.
func TenantMatch(resourceTenantID string) Condition {
	return func(p Principal) bool {
		scope, err := ScopeFor(p)
		if err != nil {
			return false
		}
		return scope.Includes(resourceTenantID)
	}
}

// NotSelf denies the principal acting on their own user record.
func NotSelf(targetUserID string) Condition {
	return func(p Principal) bool {
		return p.UserID != targetUserID
	}
}

// All allows when every condition allows.
func All(conds ...Condition) Condition {
	return func(p Principal) bool {
		for _, c := range conds {
			if !c(p) {
				return false
			}
		}
		return true
	}
}

// Any allows when at least one condition allows.
func Any(conds ...Condition) Condition {
	return func(p Principal) bool {
		for _, c := range conds {
			if c(p) {
				return true
			}
		}
		return false
	}
}

// Check returns shared.ErrForbidden unless every condition allows p.
func Check(p Principal, conds ...Condition) error {
	if All(conds...)(p) {
		return nil
	}
	return shared.ErrForbidden
}
