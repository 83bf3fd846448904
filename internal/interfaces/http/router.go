// Package http assembles the public HTTP API: routing, middleware, and the
// server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/prometheus"
	"github.com/Qubut/IP-Claim/internal/interfaces/http/handlers"
	"github.com/Qubut/IP-Claim/internal/interfaces/http/middleware"
)

// RouterDeps carries everything the router wires into handlers.  Optional
// dependencies may be nil; their endpoints then report 503.
type RouterDeps struct {
	Extraction handlers.ExtractionService
	Patents    patent.Repository
	Entities   handlers.EntityLister
	Searcher   handlers.PatentSearcher
	Health     map[string]handlers.HealthChecker
	Metrics    *prometheus.Metrics
	Registry   *promclient.Registry
	Logger     logging.Logger
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(cfg config.ServerConfig, deps RouterDeps) *gin.Engine {
	gin.SetMode(cfg.Mode)

	log := deps.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogging(log, deps.Metrics))

	health := handlers.NewHealthHandler(deps.Health)
	engine.GET("/healthz", health.Live)
	engine.GET("/readyz", health.Ready)

	if deps.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry,
			promhttp.HandlerOpts{})))
	} else {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := engine.Group("/v1")

	if deps.Extraction != nil {
		extract := handlers.NewExtractHandler(deps.Extraction)
		v1.POST("/extract", extract.ExtractText)
		v1.POST("/patents/:publication_number/extract", extract.ExtractPatent)
	}

	if deps.Patents != nil {
		patents := handlers.NewPatentHandler(deps.Patents, deps.Entities, deps.Searcher)
		v1.GET("/patents/search", patents.Search)
		v1.GET("/patents/:publication_number", patents.Get)
		v1.GET("/patents/:publication_number/entities", patents.Entities)
	}

	return engine
}
