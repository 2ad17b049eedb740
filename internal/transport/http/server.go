// Package http provides the HTTP server for datachat.
package http

import (
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/service"
	v1 "github.com/xiaot623/gogo/datachat/internal/transport/http/v1"
)

// NewServer creates and configures the public HTTP server: upload, chat,
// session teardown, journal reads, health and the static chat page.
func NewServer(svc *service.Service, staticDir string, maxUploadBytes int64, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if maxUploadBytes > 0 {
		// Multipart framing adds a little on top of the file itself.
		e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			Limit: bodyLimit(maxUploadBytes + 1<<20),
		}))
	}

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	if staticDir != "" {
		e.File("/", filepath.Join(staticDir, "index.html"))
		e.Static("/static", staticDir)
	}

	return e
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

// bodyLimit renders a byte count in the size syntax echo's body limit
// middleware expects.
func bodyLimit(n int64) string {
	const mb = 1 << 20
	return strconv.FormatInt((n+mb-1)/mb, 10) + "M"
}
