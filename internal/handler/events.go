package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/apierror"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/changefeed"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const keepAliveInterval = 25 * time.Second

// Events godoc
// @Summary Server-sent stream of product, sale and table events
// @Tags events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {object} changefeed.Event
// @Failure 503 {object} apierror.APIError
// @Router /events [get]
func Events(stream changefeed.Stream) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		events, err := stream.Listen(ctx)
		if err != nil {
			log.Error().Err(err).Msg("events: failed to subscribe")
			c.JSON(http.StatusServiceUnavailable, apierror.New("event stream unavailable"))
			return
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case ev, ok := <-events:
				if !ok {
					return false
				}
				c.SSEvent(ev.Name, ev)
				return true
			case <-ticker.C:
				// Comment line keeps proxies from closing idle connections.
				_, _ = io.WriteString(w, ": ping\n\n")
				return true
			}
		})
	}
}
