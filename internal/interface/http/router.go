package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/jobfit/internal/domain/auth"
	"github.com/yanqian/jobfit/internal/infra/config"
	"github.com/yanqian/jobfit/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service, collectors *metrics.Collectors) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)
	if collectors != nil {
		router.GET("/metrics", gin.WrapH(collectors.Handler()))
	}

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	if cfg.Auth.Disabled {
		handler.logger.Warn("token validation disabled, trusting " + devUserHeader)
		api.Use(devAuthMiddleware())
	} else {
		api.Use(authMiddleware(authSvc))
	}
	{
		api.POST("/match", handler.Match)
		api.POST("/match/text", handler.MatchText)
		api.GET("/match/reports/:id", handler.GetReport)
		api.POST("/jd/embeddings", handler.EmbedJobDescription)
		api.POST("/resume/blocks", handler.IndexResume)
		api.POST("/resume/import/notion", handler.ImportNotion)
		api.POST("/tailor", handler.StartTailor)
		api.GET("/tailor/:id", handler.TailorStatus)
		api.GET("/tailor/:id/events", handler.TailorEvents)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
