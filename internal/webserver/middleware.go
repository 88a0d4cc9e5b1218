package webserver

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-Id"
	slowRequest     = 5 * time.Second
)

// RequestID honors an incoming X-Request-Id header, otherwise generates one,
// and always echoes it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := strings.TrimSpace(c.Request().Header.Get(requestIDHeader))
			if rid == "" || len(rid) > 128 {
				rid = random.String(16)
			}
			c.Response().Header().Set(requestIDHeader, rid)
			return next(c)
		}
	}
}

// RequestLogger logs every request with its id, status and latency.
// Requests slower than 5s are flagged at Warn.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			latency := time.Since(start)
			fields := []zap.Field{
				zap.String("request_id", c.Response().Header().Get(requestIDHeader)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", latency),
				zap.String("remote", c.RealIP()),
			}
			if latency > slowRequest {
				zap.L().Warn("slow request", fields...)
			} else {
				zap.L().Info("request", fields...)
			}
			return nil
		}
	}
}

// Recover converts panics into an opaque 500 response. Full detail stays in
// the server log, never in the client payload.
func Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := make([]byte, 4096)
					stack = stack[:runtime.Stack(stack, false)]
					zap.L().Error("panic recovered",
						zap.Any("error", r),
						zap.String("request_id", c.Response().Header().Get(requestIDHeader)),
						zap.ByteString("stack", stack))
					err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"code":    "INTERNAL_ERROR",
						"message": "An error occurred while processing your request.",
					})
				}
			}()
			return next(c)
		}
	}
}
