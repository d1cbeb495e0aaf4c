package rbac

import (
	"fmt"

	"github.com/tenantflow/tenantflow/internal/shared"
)

// Scope is the effective tenant scope of a request.
type Scope struct {
	TenantID string
	Unscoped bool
}

// ScopeFor resolves the effective scope of p without touching storage.
func ScopeFor(p Principal) (Scope, error) {
	if p.IsSuperAdmin() {
		return Scope{Unscoped: true}, nil
	}
	if p.TenantID == "" {
		return Scope{}, shared.ErrTenantAccessDenied
	}
	return Scope{TenantID: p.TenantID}, nil
}

// Includes reports whether tenantID falls inside the scope.
func (s Scope) Includes(tenantID string) bool {
	if s.Unscoped {
		return true
	}
	return tenantID != "" && s.TenantID == tenantID
}

// Select picks the concrete tenant a list or create operation runs against.
// Scoped callers may only name their own tenant; unscoped callers must name one.
func (s Scope) Select(requested string) (string, error) {
	if s.Unscoped {
		if requested == "" {
			return "", shared.Validationf("tenantId is required")
		}
		return requested, nil
	}
	if requested != "" && requested != s.TenantID {
		return "", fmt.Errorf("%w: tenant outside scope", shared.ErrForbidden)
	}
	return s.TenantID, nil
}
