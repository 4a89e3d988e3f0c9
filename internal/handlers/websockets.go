package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	minInterval      = 100 * time.Millisecond
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
	accessTokenQuery = "access_token"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// period is the optional summary window, bound from the upgrade request.
type period struct {
	from, to time.Time
}

// @Summary      Balance stream
// @Description  WebSocket. Pushes {"type":"summary","data":Summary} every interval.
// @Description  Authenticate with ?access_token= or the Authorization header.
// @Tags         transactions
// @Param        access_token  query  string  false  "Access token"
// @Param        interval      query  string  false  "Push period, e.g. 2s (100ms..10s)"
// @Param        start_date    query  string  false  "From"
// @Param        end_date      query  string  false  "To"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/ws/summary [get]
func (h *Handler) wsSummary(c *gin.Context) {
	userID, ok := h.wsAuthenticate(c)
	if !ok {
		return
	}
	var q periodQuery
	if ok := h.bindQueryOrBadRequest(c, &q); !ok {
		return
	}
	from, to, err := q.bounds()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidQuery+err.Error(), "bad_request_query", err)
		return
	}
	win := period{from: from, to: to}
	interval := h.parseInterval(c)

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendSummary(ctx, conn, userID, win); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err, "user_id", userID)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendSummary(ctx, conn, userID, win); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err, "user_id", userID)
				}
				return
			}
		}
	}
}

// wsAuthenticate resolves the caller before the upgrade so a bad token is a
// plain 401 rather than a closed socket.
func (h *Handler) wsAuthenticate(c *gin.Context) (int64, bool) {
	raw := c.Query(accessTokenQuery)
	if raw == "" {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			raw = parts[1]
		}
	}
	if raw == "" {
		h.abortUnauthorized(c, errNotAuthorized)
		return 0, false
	}

	userID, err := h.services.ParseAccessToken(raw)
	if err != nil {
		h.abortUnauthorized(c, unauthorizedMsg(err))
		return 0, false
	}
	return userID, true
}

// upgrader accepts the same origins as corsMiddleware; requests without an
// Origin header (non-browser clients) are always accepted.
func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.originAllowed(origin)
		},
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 within bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= minInterval && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= int(minInterval/time.Millisecond) && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendSummary computes the balance summary and writes it with a write
// deadline. A failed computation is reported to the client as an error frame.
func (h *Handler) sendSummary(ctx context.Context, conn *websocket.Conn, userID int64, win period) error {
	sum, err := h.services.Summary(ctx, userID, win.from, win.to)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_summary_failed", "err", err, "user_id", userID)
		}
		return conn.WriteJSON(wsEnvelope{Type: "error", Error: errInternal})
	}
	return conn.WriteJSON(wsEnvelope{Type: "summary", Data: sum})
}
