// Package ownership verifies that referenced resources sit inside the caller's tenant scope.
package ownership

import (
	"context"
	"errors"
	"fmt"

	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Kind identifies a resource table.
type Kind string

const (
	KindProject Kind = "project"
	KindTask    Kind = "task"
	KindUser    Kind = "user"
)

// Ref points at one resource.
type Ref struct {
	Kind Kind
	ID   string
}

func (r Ref) String() string { return string(r.Kind) + " " + r.ID }

// Resource is the ownership metadata of a stored row.
type Resource struct {
	Ref
	TenantID  string
	CreatedBy string
}

// Lookup reads ownership metadata. Missing rows return shared.ErrNotFound.
type Lookup interface {
	Resource(ctx context.Context, ref Ref) (Resource, error)
}

// Checker runs visibility, mutation and cross-reference checks.
type Checker struct {
	lookup Lookup
}

// NewChecker constructs a Checker.
func NewChecker(lookup Lookup) *Checker {
	return &Checker{lookup: lookup}
}

// Visible loads ref and fails unless it lies inside the principal's scope.
// Rows of other tenants fail with shared.ErrCrossTenant.
func (c *Checker) Visible(ctx context.Context, p rbac.Principal, ref Ref) (Resource, error) {
	scope, err := rbac.ScopeFor(p)
	if err != nil {
		return Resource{}, err
	}
	res, err := c.lookup.Resource(ctx, ref)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Resource{}, fmt.Errorf("%w: %s", shared.ErrNotFound, ref.Kind)
		}
		return Resource{}, err
	}
	if !scope.Includes(res.TenantID) {
		return Resource{}, shared.ErrCrossTenant
	}
	return res, nil
}

// Mutable is Visible followed by the policy row for action.
func (c *Checker) Mutable(ctx context.Context, p rbac.Principal, ref Ref, action rbac.Action) (Resource, error) {
	res, err := c.Visible(ctx, p, ref)
	if err != nil {
		return Resource{}, err
	}
	target := rbac.Target{TenantID: res.TenantID, CreatedBy: res.CreatedBy}
	if ref.Kind == KindUser {
		target.UserID = res.ID
	}
	if err := rbac.Authorize(p, action, target); err != nil {
		return Resource{}, err
	}
	return res, nil
}

// Reference validates an id carried in a request body against tenantID.
// Missing and foreign rows both fail with shared.ErrInvalidReference.
func (c *Checker) Reference(ctx context.Context, tenantID string, ref Ref) error {
	res, err := c.lookup.Resource(ctx, ref)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: %s", shared.ErrInvalidReference, ref.Kind)
		}
		return err
	}
	if tenantID == "" || res.TenantID != tenantID {
		return fmt.Errorf("%w: %s", shared.ErrInvalidReference, ref.Kind)
	}
	return nil
}
