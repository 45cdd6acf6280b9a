package http

import (
	"bufio"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// SessionHeader carries the client session id
const SessionHeader = "X-Session-ID"

const heartbeatInterval = 15 * time.Second

// Handler serves the server-sent event stream
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new event stream handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger.With().Str("handler", "events").Logger(),
	}
}

// SessionID returns the session id of a request, from the header or the
// sessionId query argument
func SessionID(ctx *fasthttp.RequestCtx) string {
	if v := ctx.Request.Header.Peek(SessionHeader); len(v) > 0 {
		return string(v)
	}
	return string(ctx.QueryArgs().Peek("sessionId"))
}

// Stream handles GET /api/v1/events. A session id is minted when the client
// does not send one.
func (h *Handler) Stream(ctx *fasthttp.RequestCtx) {
	sessionID := SessionID(ctx)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sub, ok := h.hub.register(sessionID)
	if !ok {
		ctx.Error("event stream is shutting down", fasthttp.StatusServiceUnavailable)
		return
	}

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")
	ctx.Response.Header.Set(SessionHeader, sessionID)

	logger := h.logger.With().Str("session_id", sessionID).Logger()
	logger.Debug().Msg("Event stream opened")

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			h.hub.unregister(sub)
			logger.Debug().Msg("Event stream closed")
		}()

		if _, err := fmt.Fprintf(w, "event: session\ndata: {\"sessionId\":%q}\n\n", sessionID); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case payload := <-sub.events:
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
			case <-sub.done:
				return
			}

			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}
