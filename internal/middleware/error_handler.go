package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// requestLogger returns the logger attached by Logger, or a child of the
// global logger tagged with the request id.
func requestLogger(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	l := log.With().Str("request_id", c.GetString(RequestIDKey)).Logger()
	return &l
}

// Logger attaches a request-scoped logger to the request context, so services
// can use zerolog.Ctx(ctx), and writes one access line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := log.With().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		if status >= http.StatusInternalServerError {
			level = zerolog.ErrorLevel
		} else if status >= http.StatusBadRequest {
			level = zerolog.WarnLevel
		}
		l.WithLevel(level).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// ErrorHandler renders errors attached with c.Error when the handler wrote
// nothing. Causes are logged, never sent to clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		requestLogger(c).Error().Err(last.Err).Str("route", c.FullPath()).Msg("unhandled error")
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(apierror.HTTPStatus(last.Err), apierror.FromError(last.Err))
		}
	}
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}
			requestLogger(c).Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
			} else {
				c.Abort()
			}
		}()
		c.Next()
	}
}
