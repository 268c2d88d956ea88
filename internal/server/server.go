// Package server exposes the HTTP surface: the Linear webhook ingress and a
// small set of operational endpoints. Webhook signature verification is left
// to the fronting gateway.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/acknowledge-dev/acknowledge/internal/config"
	"github.com/acknowledge-dev/acknowledge/internal/identity"
	"github.com/acknowledge-dev/acknowledge/internal/linear"
	"github.com/acknowledge-dev/acknowledge/internal/observability"
	obsmiddleware "github.com/acknowledge-dev/acknowledge/internal/observability/logger"
	obsmetrics "github.com/acknowledge-dev/acknowledge/internal/observability/metrics"
	obstracing "github.com/acknowledge-dev/acknowledge/internal/observability/tracing"
	"github.com/acknowledge-dev/acknowledge/internal/organization"
	organizationdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	"github.com/acknowledge-dev/acknowledge/internal/reward"
	rewarddomain "github.com/acknowledge-dev/acknowledge/internal/reward/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	linear.Module,
	organization.Module,
	identity.Module,
	reward.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
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

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	rewardSvc       rewarddomain.Service
	organizationSvc organizationdomain.Service
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	RewardSvc       rewarddomain.Service
	OrganizationSvc organizationdomain.Service
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("server"),
		rewardSvc:       p.RewardSvc,
		organizationSvc: p.OrganizationSvc,
		obsMetrics:      p.ObsMetrics,
	}
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")
	api.POST("/linear/webhook", s.HandleLinearWebhook)
	api.PUT("/organizations/:linearId/api-key", s.HandleSetAPIKey)
	api.GET("/accounts/:id/point-logs", s.HandleListPointLogs)
}

func RunHTTP(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
