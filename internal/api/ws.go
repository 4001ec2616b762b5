package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"marketscope/internal/domain/research"
	"marketscope/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedHandler pushes query status transitions to websocket clients
type FeedHandler struct {
	feed research.Feed
	log  *logger.Logger
}

// NewFeedHandler creates the websocket status handler
func NewFeedHandler(feed research.Feed) *FeedHandler {
	return &FeedHandler{
		feed: feed,
		log:  logger.Get().With("component", "ws_feed"),
	}
}

// HandleQueryFeed upgrades the connection and streams status events for one
// query until the client disconnects or the subscription ends
func (h *FeedHandler) HandleQueryFeed(w http.ResponseWriter, r *http.Request) {
	queryID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	events, cancel, err := h.feed.SubscribeStatus(r.Context(), queryID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("Websocket upgrade failed", "query_id", queryID, "error", err)
		return
	}
	defer conn.Close()

	h.log.Debugw("Websocket subscriber connected", "query_id", queryID)

	// Reader goroutine only to detect client close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				h.log.Debugw("Websocket write failed", "query_id", queryID, "error", err)
				return
			}
			// Terminal status ends the stream: nothing further will arrive
			if event.Status.Terminal() {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}
}
