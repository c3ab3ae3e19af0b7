package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/kmorales/expenseflow/internal/application/service"
	"github.com/kmorales/expenseflow/internal/auth"
	"github.com/kmorales/expenseflow/internal/config"
	"github.com/kmorales/expenseflow/internal/infrastructure/persistence/repository"
	httpserver "github.com/kmorales/expenseflow/internal/interfaces/http"
	"github.com/kmorales/expenseflow/internal/receipt"
	"github.com/kmorales/expenseflow/internal/report"
	"github.com/kmorales/expenseflow/pkg/database"
	"github.com/kmorales/expenseflow/pkg/utils"
)

func main() {
	// Local development convenience; missing .env is fine
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ExpenseFlow",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepo(db)
	flowRepo := repository.NewFlowRepo(db)
	expenseRepo := repository.NewExpenseRepo(db)
	txManager := repository.NewTxManager(db)

	// Services
	svcLogger := utils.NewSugaredAdapter(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)

	authService := service.NewAuthService(userRepo, tokens, svcLogger)
	userService := service.NewUserService(userRepo, flowRepo, svcLogger)
	flowService := service.NewFlowService(flowRepo, userRepo, svcLogger)
	expenseService := service.NewExpenseService(expenseRepo, userRepo, flowRepo, txManager, svcLogger)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(seedCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		cancelSeed()
		logger.Fatal("Failed to seed admin account", zap.Error(err))
	}
	cancelSeed()

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		httpserver.Services{
			Auth:     authService,
			Users:    userService,
			Flows:    flowService,
			Expenses: expenseService,
			Scanner:  receipt.NewScanner(logger),
			PDF:      receipt.NewPDFReader(logger),
			Exporter: report.NewExpenseExporter(logger),
		},
		tokens,
		svcLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
