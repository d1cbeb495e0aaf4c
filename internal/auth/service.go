package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tenantflow/tenantflow/internal/shared"
)

// tenantStatusActive is the only tenant status allowed to log in.
const tenantStatusActive = "active"

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
	hasher Hasher
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, hasher Hasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, hasher: hasher, logger: logger}
}

// Login resolves the login identity and issues a token. Platform administrators are
// matched by email first; everyone else must name their tenant subdomain.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	email := shared.NormalizeEmail(in.Email)

	// A platform account owns its email; tenant accounts with the same address never reach the tenant path.
	admin, err := s.repo.FindSuperAdmin(ctx, email)
	switch {
	case err == nil:
		return s.issue(admin, in.Password)
	case !errors.Is(err, shared.ErrNotFound):
		return Session{}, err
	}

	subdomain := shared.NormalizeSubdomain(in.TenantSubdomain)
	if subdomain == "" {
		return Session{}, shared.Validationf("tenantSubdomain is required")
	}
	tenant, err := s.repo.FindTenantBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: tenant", shared.ErrNotFound)
		}
		return Session{}, err
	}
	if tenant.Status != tenantStatusActive {
		return Session{}, fmt.Errorf("%w: tenant is %s", shared.ErrTenantAccessDenied, tenant.Status)
	}

	acc, err := s.repo.FindTenantAccount(ctx, tenant.ID, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, shared.ErrInvalidCredential
		}
		return Session{}, err
	}
	return s.issue(acc, in.Password)
}

func (s *Service) issue(acc Account, password string) (Session, error) {
	ok, err := s.hasher.Compare(acc.PasswordHash, password)
	if err != nil {
		s.logger.Warn("password compare", slog.String("user_id", acc.ID), slog.Any("error", err))
		return Session{}, shared.ErrInvalidCredential
	}
	if !ok || !acc.IsActive {
		return Session{}, shared.ErrInvalidCredential
	}
	token, err := s.tokens.Sign(acc.Principal())
	if err != nil {
		return Session{}, err
	}
	var tenantID *string
	if acc.TenantID != "" {
		id := acc.TenantID
		tenantID = &id
	}
	return Session{
		Token:     token.Value,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		ExpiresAt: token.ExpiresAt,
		User: SessionUser{
			ID:       acc.ID,
			Email:    acc.Email,
			FullName: acc.FullName,
			Role:     acc.Role,
			TenantID: tenantID,
		},
	}, nil
}

// Me re-reads the caller from storage, rejecting deactivated accounts.
func (s *Service) Me(ctx context.Context, userID string) (Profile, error) {
	acc, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if !acc.IsActive {
		return Profile{}, fmt.Errorf("%w: account disabled", shared.ErrInvalidCredential)
	}
	profile := Profile{
		ID:       acc.ID,
		Email:    acc.Email,
		FullName: acc.FullName,
		Role:     acc.Role,
		IsActive: acc.IsActive,
	}
	if acc.TenantID != "" {
		tenant, err := s.repo.GetTenant(ctx, acc.TenantID)
		if err != nil {
			return Profile{}, err
		}
		profile.Tenant = &tenant
	}
	return profile, nil
}
