package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudunify/cloudunify/internal/activity"
	"github.com/cloudunify/cloudunify/internal/config"
	ingestdomain "github.com/cloudunify/cloudunify/internal/ingest/domain"
	orgdomain "github.com/cloudunify/cloudunify/internal/organization/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
	fx.Provide(NewHTTPMetrics),
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(MetricsMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withUpgradeWriter(r),
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

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	db        *gorm.DB
	log       *zap.Logger
	ingestSvc ingestdomain.Service
	orgs      orgdomain.Repository
	hub       *activity.Hub
}

type ServerParams struct {
	fx.In

	Engine    *gin.Engine
	Config    config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	IngestSvc ingestdomain.Service
	Orgs      orgdomain.Repository
	Hub       *activity.Hub
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:    p.Engine,
		cfg:       p.Config,
		db:        p.DB,
		log:       p.Log.Named("server"),
		ingestSvc: p.IngestSvc,
		orgs:      p.Orgs,
		hub:       p.Hub,
	}
}

func (s *Server) RegisterAPIRoutes() {
	s.engine.POST("/resources/bulk", s.BulkIngestResources)
	s.engine.POST("/costs/bulk", s.BulkIngestCosts)
	s.engine.GET("/ws/activity", s.StreamActivity)
}
