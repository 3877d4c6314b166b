package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/civicpulse/internal/audit"
	auditdomain "github.com/smallbiznis/civicpulse/internal/audit/domain"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/comment"
	commentdomain "github.com/smallbiznis/civicpulse/internal/comment/domain"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/confirmation"
	confirmationdomain "github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/follow"
	followdomain "github.com/smallbiznis/civicpulse/internal/follow/domain"
	"github.com/smallbiznis/civicpulse/internal/gamification"
	gamificationdomain "github.com/smallbiznis/civicpulse/internal/gamification/domain"
	"github.com/smallbiznis/civicpulse/internal/moderation"
	moderationdomain "github.com/smallbiznis/civicpulse/internal/moderation/domain"
	"github.com/smallbiznis/civicpulse/internal/notification"
	notificationdomain "github.com/smallbiznis/civicpulse/internal/notification/domain"
	"github.com/smallbiznis/civicpulse/internal/observability"
	obsmiddleware "github.com/smallbiznis/civicpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/civicpulse/internal/observability/metrics"
	obstracing "github.com/smallbiznis/civicpulse/internal/observability/tracing"
	"github.com/smallbiznis/civicpulse/internal/ratelimit"
	"github.com/smallbiznis/civicpulse/internal/report"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"github.com/smallbiznis/civicpulse/internal/user"
	userdomain "github.com/smallbiznis/civicpulse/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// DomainModules wires every engine package; the HTTP server and the
// standalone scheduler both build on it.
var DomainModules = fx.Options(
	authorization.Module,
	audit.Module,
	events.Module,
	ratelimit.Module,
	user.Module,
	report.Module,
	follow.Module,
	confirmation.Module,
	comment.Module,
	moderation.Module,
	notification.Module,
	gamification.Module,
)

var Module = fx.Module("http.server",
	DomainModules,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	userSvc         userdomain.Service
	reportSvc       reportdomain.Service
	confirmationSvc confirmationdomain.Service
	commentSvc      commentdomain.Service
	followSvc       followdomain.Service
	moderationSvc   moderationdomain.Service
	notificationSvc notificationdomain.Service
	gamificationSvc gamificationdomain.Service
	auditSvc        auditdomain.Service
	writeLimiter    *ratelimit.WriteLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	UserSvc         userdomain.Service
	ReportSvc       reportdomain.Service
	ConfirmationSvc confirmationdomain.Service
	CommentSvc      commentdomain.Service
	FollowSvc       followdomain.Service
	ModerationSvc   moderationdomain.Service
	NotificationSvc notificationdomain.Service
	GamificationSvc gamificationdomain.Service
	AuditSvc        auditdomain.Service
	WriteLimiter    *ratelimit.WriteLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		userSvc:         p.UserSvc,
		reportSvc:       p.ReportSvc,
		confirmationSvc: p.ConfirmationSvc,
		commentSvc:      p.CommentSvc,
		followSvc:       p.FollowSvc,
		moderationSvc:   p.ModerationSvc,
		notificationSvc: p.NotificationSvc,
		gamificationSvc: p.GamificationSvc,
		auditSvc:        p.AuditSvc,
		writeLimiter:    p.WriteLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// Profiles are created before the caller has an identity of their own.
	api.POST("/users", s.CreateUser)
	api.GET("/stats", s.GetCommunityStats)

	authed := api.Group("", s.ActorRequired())
	write := s.WriteRateLimit()

	// -------- Reports --------
	authed.POST("/reports", write, s.CreateReport)
	authed.GET("/reports/:id", s.GetReport)
	authed.POST("/reports/:id/status", s.RequestStatusChange)

	// -------- Confirmations --------
	authed.POST("/reports/:id/votes", write, s.CastVote)
	authed.GET("/reports/:id/votes", s.GetTally)

	// -------- Comments --------
	authed.POST("/reports/:id/comments", write, s.AddComment)
	authed.GET("/reports/:id/comments", s.ListComments)

	// -------- Follows --------
	authed.POST("/reports/:id/follow", write, s.ToggleFollow)

	// -------- Flags --------
	authed.POST("/reports/:id/flags", write, s.FlagReport)
	authed.POST("/comments/:id/flags", write, s.FlagComment)

	// -------- Users --------
	authed.PATCH("/users/me", s.UpdateDisplayName)
	authed.GET("/users/:id", s.GetUser)
	authed.GET("/users/:id/gamification", s.GetGamificationSummary)

	// -------- Notifications --------
	authed.GET("/notifications", s.ListNotifications)
	authed.POST("/notifications/read-all", s.MarkAllNotificationsRead)
	authed.POST("/notifications/:id/read", s.MarkNotificationRead)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	// Role checks run inside the moderation service.
	admin.Use(s.ActorRequired())

	admin.POST("/reports/:id/hide", s.HideReport)
	admin.POST("/reports/:id/unhide", s.UnhideReport)
	admin.POST("/reports/:id/lock-comments", s.LockComments)
	admin.POST("/reports/:id/unlock-comments", s.UnlockComments)

	admin.POST("/users/:id/ban", s.BanUser)
	admin.POST("/users/:id/unban", s.UnbanUser)

	admin.GET("/flags", s.ListFlags)
	admin.GET("/stats", s.GetStats)
	admin.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
