package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kidpech/asso_api/internal/app/diagnostics"
	"github.com/kidpech/asso_api/internal/app/middleware"
	"github.com/kidpech/asso_api/internal/config"
	"github.com/kidpech/asso_api/internal/domain/contribution"
	"github.com/kidpech/asso_api/internal/domain/loginlog"
	"github.com/kidpech/asso_api/internal/domain/member"
	"github.com/kidpech/asso_api/internal/domain/setting"
	"github.com/kidpech/asso_api/internal/domain/transaction"
	"github.com/kidpech/asso_api/internal/domain/user"
	"github.com/kidpech/asso_api/internal/infrastructure/auth"
	"github.com/kidpech/asso_api/internal/infrastructure/ratelimit"
)

// RouterDeps aggregates HTTP dependencies.
type RouterDeps struct {
	Config              *config.Config
	UserHandler         *user.Handler
	MemberHandler       *member.Handler
	ContributionHandler *contribution.Handler
	TransactionHandler  *transaction.Handler
	SettingHandler      *setting.Handler
	LoginLogHandler     *loginlog.Handler
	Diagnostics         *diagnostics.Handler
	AuthManager         *auth.Manager
	Logger              *zap.Logger
	LogBuffer           *diagnostics.LogBuffer
	IPLimiter           ratelimit.Limiter
	UserLimiter         ratelimit.Limiter
	UploadsDir          string
}

// NewRouter builds the gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if deps.Config != nil {
		r.Use(middleware.CORS(deps.Config.Cors))
	}
	if deps.AuthManager != nil {
		r.Use(middleware.OptionalAuth(deps.AuthManager))
	}
	if deps.Config == nil || deps.Config.RateLimit.Enabled {
		r.Use(middleware.RateLimit(deps.IPLimiter, deps.UserLimiter, deps.Logger))
	}
	r.Use(middleware.RequestLogger(deps.Logger, deps.LogBuffer))

	var authMW gin.HandlerFunc = middleware.AuthenticatedOnly()
	if deps.AuthManager != nil {
		authMW = middleware.AuthMiddleware(deps.AuthManager)
	}
	adminMW := middleware.AdminOnly()

	if deps.UploadsDir != "" {
		r.Static("/uploads", deps.UploadsDir)
	}

	api := r.Group("/api/v1")
	if deps.Diagnostics != nil {
		deps.Diagnostics.RegisterPublic(api)
		debug := api.Group("", authMW, adminMW)
		deps.Diagnostics.RegisterProtected(debug)
	}
	if deps.Config == nil || deps.Config.Monitoring.PrometheusEnabled {
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api, authMW, adminMW)
	}
	if deps.MemberHandler != nil {
		deps.MemberHandler.RegisterRoutes(api, authMW)
	}
	if deps.ContributionHandler != nil {
		deps.ContributionHandler.RegisterRoutes(api, authMW)
	}
	if deps.TransactionHandler != nil {
		deps.TransactionHandler.RegisterRoutes(api, authMW)
	}
	if deps.SettingHandler != nil {
		deps.SettingHandler.RegisterRoutes(api, authMW, adminMW)
	}
	if deps.LoginLogHandler != nil {
		deps.LoginLogHandler.RegisterRoutes(api, authMW, adminMW)
	}

	return r
}
