package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tenantflow/tenantflow/internal/app"
	"github.com/tenantflow/tenantflow/internal/audit"
	audithttp "github.com/tenantflow/tenantflow/internal/audit/http"
	"github.com/tenantflow/tenantflow/internal/auth"
	"github.com/tenantflow/tenantflow/internal/observability"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/platform/cache"
	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/projects"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/tasks"
	"github.com/tenantflow/tenantflow/internal/tenants"
	"github.com/tenantflow/tenantflow/internal/users"
	"github.com/tenantflow/tenantflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var loginLimit, signupLimit func(http.Handler) http.Handler
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, login rate limiting disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		loginLimit = app.RateLimit(cache.NewLimiter(redisClient, "ratelimit:login", cfg.LoginRateLimit, cfg.LoginRateWindow), logger)
		signupLimit = app.RateLimit(cache.NewLimiter(redisClient, "ratelimit:signup", cfg.LoginRateLimit, cfg.LoginRateWindow), logger)
	}

	metrics := observability.NewMetrics()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}
	hasher := auth.NewHasher(cfg.BcryptCost)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	var sink audit.Sink = audit.NewPGSink(pool)
	if cfg.AMQPURL != "" {
		conn, ch, err := openBroker(cfg.AMQPURL)
		if err != nil {
			logger.Warn("amqp unavailable, audit mirror disabled", slog.Any("error", err))
		} else {
			defer func() {
				_ = ch.Close()
				_ = conn.Close()
			}()
			sink = audit.NewTee(logger, sink, audit.NewBrokerSink(ch, audit.DefaultQueue))
		}
	}
	recorder := audit.NewRecorder(sink, logger,
		audit.WithRetrier(jobClient),
		audit.WithObserver(metrics),
		audit.WithTimeout(cfg.AuditTimeout),
	)

	enforcer := quota.NewEnforcer(metrics)
	checker := ownership.NewChecker(ownership.NewPGLookup(pool))

	authService := auth.NewService(auth.NewRepository(pool), tokens, hasher, logger)
	tenantService := tenants.NewService(tenants.NewRepository(pool), hasher, recorder, logger)
	userService := users.NewService(users.NewRepository(pool), checker, enforcer, hasher, recorder, logger)
	projectService := projects.NewService(projects.NewRepository(pool), checker, enforcer, recorder, logger)
	taskService := tasks.NewService(tasks.NewRepository(pool), checker, recorder, logger)
	auditService := audit.NewService(audit.NewRepository(pool))

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		DB:              pool,
		Authenticator:   auth.NewAuthenticator(tokens, logger, metrics),
		RBACMiddleware:  rbac.Middleware{Logger: logger, Observer: metrics},
		AuthHandler:     auth.NewHandler(logger, authService, loginLimit),
		TenantsHandler:  tenants.NewHandler(logger, tenantService, signupLimit),
		UsersHandler:    users.NewHandler(logger, userService),
		ProjectsHandler: projects.NewHandler(logger, projectService),
		TasksHandler:    tasks.NewHandler(logger, taskService),
		AuditHandler:    audithttp.NewHandler(logger, auditService),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func openBroker(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	if err := audit.DeclareQueue(ch, audit.DefaultQueue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
