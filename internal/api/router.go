package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZenDevMaster/barcodecentral/internal/api/handlers"
	"github.com/ZenDevMaster/barcodecentral/internal/api/middleware"
)

// Deps collects everything the router mounts.
type Deps struct {
	Auth      *middleware.AuthMiddleware
	Print     *handlers.PrintHandler
	Preview   *handlers.PreviewHandler
	History   *handlers.HistoryHandler
	Printers  *handlers.PrinterHandler
	Templates *handlers.TemplateHandler
	Logger    *zap.Logger
}

// NewRouter assembles the gin engine: health check, public auth endpoints,
// and the authenticated API surface.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(recovery(deps.Logger))
	r.Use(requestLogger(deps.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", deps.Auth.LoginHandler)
		auth.POST("/logout", deps.Auth.LogoutHandler)
		auth.POST("/setup", deps.Auth.SetupHandler)
		auth.GET("/status", deps.Auth.StatusHandler)
		auth.POST("/change-password", deps.Auth.RequireAuth(), deps.Auth.ChangePasswordHandler)
	}

	apiGroup := r.Group("/api")
	apiGroup.Use(deps.Auth.RequireAuth())
	{
		deps.Print.RegisterRoutes(apiGroup)
		deps.Preview.RegisterRoutes(apiGroup)
		deps.History.RegisterRoutes(apiGroup)
		deps.Printers.RegisterRoutes(apiGroup)
		deps.Templates.RegisterRoutes(apiGroup)
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("http request", fields...)
		case status >= 400:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{
					Error:   "internal_error",
					Message: "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
