package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/changefeed"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

// streamRecorder adds the CloseNotifier gin's Stream expects.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

type brokenStream struct{}

func (brokenStream) Listen(context.Context) (<-chan changefeed.Event, error) {
	return nil, errors.New("broker down")
}

func TestEvents_StreamsPublishedEvents(t *testing.T) {
	hub := changefeed.NewHub(8)
	r := gin.New()
	r.GET("/events", Events(hub))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = hub.Publish(ctx, changefeed.Event{Name: "table:update", Data: map[string]any{"status": "free"}})
			}
		}
	}()

	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	r.ServeHTTP(w, req)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:table:update")
	assert.Contains(t, w.Body.String(), `"status":"free"`)
}

func TestEvents_UnavailableStream(t *testing.T) {
	r := gin.New()
	r.GET("/events", Events(brokenStream{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
