package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"notable/notable/events"
	"notable/notable/session"
	"notable/notable/utils/jsonutils"
	"notable/notable/utils/logging"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const eventWriteTimeout = 5 * time.Second

// EventsController streams the signed-in user's note change events over a
// WebSocket so open pages can refresh themselves.
type EventsController struct {
	bus     *events.Bus
	origins []string
}

func NewEventsController(bus *events.Bus, origins []string) *EventsController {
	return &EventsController{bus: bus, origins: origins}
}

func (c *EventsController) Stream(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	if !sc.SignedIn() {
		jsonutils.WriteError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: c.origins})
	if err != nil {
		logging.ErrorLogger.Error("websocket accept error", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	sub := c.bus.Subscribe(sc.Session.User.ID)
	defer sub.Close()

	// The client never sends; CloseRead handles pings and notices hang-ups.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case e, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "unsubscribed")
				return
			}
			if err := writeEvent(ctx, conn, e); err != nil {
				if !errors.Is(err, context.Canceled) {
					logging.AppLogger.Debug("event write failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, e events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, e)
}
