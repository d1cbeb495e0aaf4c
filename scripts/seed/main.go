package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantflow/tenantflow/internal/app"
	"github.com/tenantflow/tenantflow/internal/auth"
	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// seedNamespace derives stable ids so the seed can run repeatedly.
var seedNamespace = uuid.MustParse("5b0c8f3e-2f5c-4f5e-9a63-8d2a7c1e4b10")

func seedID(name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(name)).String()
}

func main() {
	if app.InTestMode() {
		return
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, app.NewLogger(cfg)); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	hasher := auth.NewHasher(cfg.BcryptCost)

	fmt.Println("→ Seeding platform administrator...")
	if err := seedSuperAdmin(ctx, pool, hasher, cfg); err != nil {
		log.Fatalf("seed super admin: %v", err)
	}

	if cfg.IsProduction() {
		fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
		return
	}

	fmt.Println("→ Seeding demo tenant...")
	if err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		return seedDemoTenant(ctx, tx, hasher)
	}); err != nil {
		log.Fatalf("seed demo tenant: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// =============================================================================
// PLATFORM
// =============================================================================

func seedSuperAdmin(ctx context.Context, pool *pgxpool.Pool, hasher auth.Hasher, cfg *app.Config) error {
	password := cfg.SuperAdminPassword
	if password == "" {
		if cfg.IsProduction() {
			return errors.New("SUPERADMIN_PASSWORD is required in production")
		}
		password = "superadmin123"
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, password_hash, full_name, role)
		VALUES ($1, NULL, $2, $3, 'Platform Administrator', 'super_admin')
		ON CONFLICT DO NOTHING`,
		seedID("user:superadmin"), shared.NormalizeEmail(cfg.SuperAdminEmail), hash)
	return err
}

// =============================================================================
// DEMO TENANT
// =============================================================================

func seedDemoTenant(ctx context.Context, tx pgx.Tx, hasher auth.Hasher) error {
	tenantID := seedID("tenant:acme")
	if _, err := tx.Exec(ctx, `
		INSERT INTO tenants (id, name, subdomain, status, subscription_plan, max_users, max_projects)
		VALUES ($1, 'Acme Corporation', 'acme', 'active', 'pro', 25, 10)
		ON CONFLICT (subdomain) DO NOTHING`, tenantID); err != nil {
		return err
	}

	members := []struct {
		key      string
		email    string
		name     string
		role     string
		password string
	}{
		{"admin", "admin@acme.test", "Alice Admin", "tenant_admin", "admin12345"},
		{"dev", "dev@acme.test", "Dan Developer", "user", "user12345"},
	}
	for _, m := range members {
		hash, err := hasher.Hash(m.password)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, tenant_id, email, password_hash, full_name, role)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT DO NOTHING`,
			seedID("user:acme:"+m.key), tenantID, m.email, hash, m.name, m.role); err != nil {
			return err
		}
	}

	projectID := seedID("project:acme:website")
	if _, err := tx.Exec(ctx, `
		INSERT INTO projects (id, tenant_id, name, description, status, created_by)
		VALUES ($1, $2, 'Website Relaunch', 'New marketing site', 'active', $3)
		ON CONFLICT (id) DO NOTHING`,
		projectID, tenantID, seedID("user:acme:admin")); err != nil {
		return err
	}

	tasks := []struct {
		key      string
		title    string
		status   string
		priority string
		assignee string
		dueDays  int
	}{
		{"design", "Design mockups", "completed", "high", "dev", -3},
		{"build", "Build landing page", "in_progress", "high", "dev", 7},
		{"copy", "Write copy", "todo", "medium", "", 14},
	}
	for _, t := range tasks {
		var assignee *string
		if t.assignee != "" {
			id := seedID("user:acme:" + t.assignee)
			assignee = &id
		}
		due := time.Now().UTC().AddDate(0, 0, t.dueDays).Format("2006-01-02")
		if _, err := tx.Exec(ctx, `
			INSERT INTO tasks (id, project_id, tenant_id, title, status, priority, assigned_to, due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date)
			ON CONFLICT (id) DO NOTHING`,
			seedID("task:acme:"+t.key), projectID, tenantID, t.title, t.status, t.priority, assignee, due); err != nil {
			return err
		}
	}
	return nil
}
