// Package httpapi is the gin transport of the sync backend: routing,
// middleware and the JSON envelope.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "Investment Tracker API"
	serviceVersion = "1.0.0"
)

type Services struct {
	Users       *services.UserService
	Identity    *services.IdentityResolver
	Investments *services.InvestmentService
	Sites       *services.SiteConfigService
	Preferences *services.PreferencesService
	Sync        *services.SyncService
}

type Options struct {
	Environment        string
	AllowedOrigins     []string
	RateLimitPerMinute int
}

type Handler struct {
	svc  Services
	opts Options
	log  logging.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(svc Services, opts Options, log logging.Logger) *gin.Engine {
	h := &Handler{svc: svc, opts: opts, log: log.With("module", "http")}

	r := gin.New()
	r.Use(requestID(), requestLogger(h.log), recovery(h.log), cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/", h.info)
	r.GET("/health", h.health)

	api := r.Group("/api", rateLimit(opts.RateLimitPerMinute))

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.GET("/validate", h.bearerAuth(), h.validate)

	protected := api.Group("", h.bearerAuth())

	inv := protected.Group("/investments")
	inv.GET("", h.listInvestments)
	inv.POST("", h.createInvestment)
	inv.DELETE("", h.deleteAllInvestments)
	inv.POST("/bulk", h.bulkInvestments)
	inv.PUT("/:id", h.updateInvestment)
	inv.DELETE("/:id", h.deleteInvestment)

	for _, prefix := range []string{"/config", "/user"} {
		g := protected.Group(prefix)
		g.GET("/sites", h.listSites)
		g.POST("/sites", h.createSite)
		g.PUT("/sites/:id", h.updateSite)
		g.DELETE("/sites/:id", h.deleteSite)
		g.GET("/preferences", h.getPreferences)
		g.PUT("/preferences", h.updatePreferences)
	}

	for _, prefix := range []string{"/sync", ""} {
		g := protected.Group(prefix)
		g.GET("/status", h.syncStatus)
		g.POST("/push", h.syncPush)
		g.GET("/pull", h.syncPull)
		g.GET("/export", h.export)
		g.POST("/import", h.importData)
	}

	return r
}

func (h *Handler) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    serviceName,
		"version": serviceVersion,
		"status":  "running",
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"environment": h.opts.Environment,
	})
}
