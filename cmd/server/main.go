package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	httphandler "github.com/ogurasousui/employee-directory/internal/adapters/http/handler"
	"github.com/ogurasousui/employee-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/employee-directory/internal/core/auth"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/health"
	"github.com/ogurasousui/employee-directory/internal/platform/bootstrap"
	pg "github.com/ogurasousui/employee-directory/internal/platform/db/postgres"
	"github.com/ogurasousui/employee-directory/internal/platform/metrics"
	"github.com/ogurasousui/employee-directory/internal/platform/server"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := bootstrap.Load(ctx, bootstrap.ConfigPath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	auditRepo := postgres.NewAuditRepository(dbPool)
	txManager := pg.NewTransactionManager(dbPool)

	employeeSvc := employee.NewService(employeeRepo, auditRepo, nil, txManager)
	querySvc := employee.NewQuery(employeeRepo, auditRepo, nil)

	users := make([]auth.Credential, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, auth.Credential{Username: u.Username, PasswordHash: u.PasswordHash})
	}
	authSvc, err := auth.NewService(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.AccessTokenTTL,
	}, users, nil)
	if err != nil {
		logger.Fatal("failed to initialize auth service", zap.Error(err))
	}
	if len(users) == 0 {
		logger.Warn("no users configured; mutations will be rejected")
	}

	healthSvc := health.NewService(dbPool, employeeRepo, version)
	appMetrics := metrics.New()

	router := httphandler.NewRouter(httphandler.Dependencies{
		Employees:          employeeSvc,
		Queries:            querySvc,
		Auth:               authSvc,
		Health:             healthSvc,
		Metrics:            appMetrics,
		Logger:             logger,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RequestTimeout:     cfg.Server.RequestTimeout,
	})

	srv := server.New(server.Options{
		HTTPAddr: cfg.Server.HTTPAddr,
		GRPCAddr: cfg.Server.GRPCAddr,
	}, router, healthSvc, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("server stopped")
}
