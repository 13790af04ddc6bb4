package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kidpech/asso_api/internal/app"
	"github.com/kidpech/asso_api/internal/app/diagnostics"
	"github.com/kidpech/asso_api/internal/config"
	"github.com/kidpech/asso_api/internal/domain/contribution"
	"github.com/kidpech/asso_api/internal/domain/loginlog"
	"github.com/kidpech/asso_api/internal/domain/member"
	"github.com/kidpech/asso_api/internal/domain/setting"
	"github.com/kidpech/asso_api/internal/domain/transaction"
	"github.com/kidpech/asso_api/internal/domain/user"
	"github.com/kidpech/asso_api/internal/infrastructure/auth"
	"github.com/kidpech/asso_api/internal/infrastructure/cache"
	dbinfra "github.com/kidpech/asso_api/internal/infrastructure/db"
	"github.com/kidpech/asso_api/internal/infrastructure/logging"
	"github.com/kidpech/asso_api/internal/infrastructure/monitoring"
	"github.com/kidpech/asso_api/internal/infrastructure/ratelimit"
	redisinfra "github.com/kidpech/asso_api/internal/infrastructure/redis"
	"github.com/kidpech/asso_api/internal/infrastructure/scheduler"
	"github.com/kidpech/asso_api/internal/infrastructure/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logBuffer := diagnostics.NewLogBuffer(cfg.Diagnostics.MaxLogLines)
	if cfg.Diagnostics.EnableDebugLogs {
		logger = logging.Tee(logger, logBuffer, zapcore.WarnLevel)
	}
	defer logging.Sync(logger)

	if err := monitoring.InitSentry(cfg.Monitoring, cfg.App); err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	monitoring.Init()
	defer monitoring.Flush()

	dbManager, err := dbinfra.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer dbManager.Close()

	if cfg.Database.AutoMigrate {
		if err := dbinfra.Migrate(dbManager, logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redisClient, err := redisinfra.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, falling back to memory stores", zap.Error(err))
	}
	defer redisClient.Close()

	authManager := auth.NewManager(cfg.Auth, redisClient.Raw())

	photos, err := storage.NewLocalPhotos(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		logger.Fatal("upload storage failed", zap.Error(err))
	}

	settingService := setting.NewService(dbinfra.NewSettingRepository(dbManager.Write), cfg.Dues.DefaultAmount, logging.Component(logger, "settings"))
	reportCache := cache.NewViewCache[contribution.QuarterlyReport](redisClient.Raw(), "asso:view:", cfg.Dues.ReportCacheTTL, logging.Component(logger, "cache"))
	contributionService := contribution.NewService(
		dbinfra.NewContributionRepository(dbManager.Write, dbManager.Read),
		reportCache,
		settingService,
		logging.Component(logger, "contributions"),
		contribution.WithPaymentObserver(monitoring.ObservePayment),
	)
	memberService := member.NewService(
		dbinfra.NewMemberRepository(dbManager.Write, dbManager.Read),
		contributionService,
		photos,
		member.PhotoPolicy{MaxBytes: cfg.Uploads.MaxBytes, Extensions: cfg.Uploads.AllowedTypes},
		logging.Component(logger, "members"),
	)
	loginLogService := loginlog.NewService(dbinfra.NewLoginLogRepository(dbManager.Write))
	userService := user.NewService(dbinfra.NewUserRepository(dbManager.Write), authManager, logging.Component(logger, "users"), user.Options{
		AllowSignup: cfg.Security.AllowRegistration,
		BcryptCost:  cfg.Security.BcryptCost,
		Members:     memberService,
		Logins:      loginLogService,
		OnLogin:     monitoring.ObserveLogin,
	})
	if _, err := userService.EnsureAdmin(ctx, cfg.Security.AdminUsername, cfg.Security.AdminPassword); err != nil {
		logger.Error("bootstrap admin failed", zap.Error(err))
	}
	transactionService := transaction.NewService(dbinfra.NewTransactionRepository(dbManager.Write, dbManager.Read), logging.Component(logger, "transactions"))

	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.New(cfg.Scheduler.DuesSpec, contributionService, logger)
		if err != nil {
			logger.Fatal("scheduler init failed", zap.Error(err))
		}
		if cfg.Scheduler.SeedOnStart {
			if err := jobs.RunOnce(ctx); err != nil {
				logger.Warn("startup dues seeding skipped; the scheduled run will retry", zap.Error(err))
			}
		}
		jobs.Start(ctx)
	}

	checks := map[string]diagnostics.Pinger{"database": dbManager.Write, "redis": nil}
	if redisClient != nil {
		checks["redis"] = diagnostics.PingFunc(redisClient.Ping)
	}

	var ipLimiter, userLimiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		quota := ratelimit.Quota{Limit: cfg.RateLimit.RequestsPerMinute, Burst: cfg.RateLimit.Burst, Window: cfg.RateLimit.Window}
		if rc := redisClient.Raw(); rc != nil {
			ipLimiter = ratelimit.NewRedisLimiter(rc, quota, cfg.RateLimit.RedisPrefix+":ip")
			userLimiter = ratelimit.NewRedisLimiter(rc, quota, cfg.RateLimit.RedisPrefix+":user")
		} else {
			ipLimiter = ratelimit.NewMemoryLimiter(quota)
			userLimiter = ratelimit.NewMemoryLimiter(quota)
		}
	}

	router := app.NewRouter(app.RouterDeps{
		Config:              cfg,
		UserHandler:         user.NewHandler(userService),
		MemberHandler:       member.NewHandler(memberService),
		ContributionHandler: contribution.NewHandler(contributionService),
		TransactionHandler:  transaction.NewHandler(transactionService),
		SettingHandler:      setting.NewHandler(settingService),
		LoginLogHandler:     loginlog.NewHandler(loginLogService),
		Diagnostics:         diagnostics.NewHandler(logBuffer, cfg.App.Version, checks),
		AuthManager:         authManager,
		Logger:              logger,
		LogBuffer:           logBuffer,
		IPLimiter:           ipLimiter,
		UserLimiter:         userLimiter,
		UploadsDir:          photos.Dir(),
	})

	server := &app.Server{Engine: router, Addr: ":" + cfg.App.Port, Logger: logger}
	if err := server.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
