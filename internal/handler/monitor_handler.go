package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/opencourse/proctor-backend/internal/config"
	"github.com/opencourse/proctor-backend/internal/events"
	"github.com/opencourse/proctor-backend/internal/middleware"
	"github.com/opencourse/proctor-backend/internal/response"
	ws "github.com/opencourse/proctor-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const monitorKeepAlive = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams attempt lifecycle events to staff dashboards.
type MonitorHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// CourseMonitorStream godoc
// WS /ws/v1/staff/courses/:course_id/monitor
// Upgrades to WebSocket and relays every attempt event published for
// the course. Clients may send {"action":"ping"} to keep-alive.
func (h *MonitorHandler) CourseMonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID := c.Param("course_id")
	if courseID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("course_id", courseID).
		Str("staff_id", claims.UserID.String()).
		Logger()
	wsLog.Info().Msg("Staff attached to course monitor")

	reqCtx := c.Request.Context()

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.CourseAttemptChannel(courseID))
	defer pubsub.Close()
	eventCh := pubsub.Channel()

	// Reader goroutine: only ping requests come from the client. A read
	// failure means the peer is gone, signalled through done.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var req ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if req.Action == ws.ActionPing {
				ws.WriteTyped(conn, ws.PongMessage{Event: ws.EventPong})
			}
		}
	}()

	keepAlive := time.NewTicker(monitorKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-reqCtx.Done():
			wsLog.Info().Msg("Staff detached from course monitor")
			return
		case <-done:
			wsLog.Debug().Msg("Connection closed")
			return
		case msg := <-eventCh:
			var event events.AttemptEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed attempt event dropped")
				continue
			}
			if err := ws.WriteTyped(conn, ws.AttemptMessage{Event: ws.EventAttempt, Payload: event}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, dropping connection")
				return
			}
		case <-keepAlive.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
