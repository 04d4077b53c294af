package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"socialchat/internal/app/chat"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/limiter"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/resp"
)

// HandleWebSocket upgrades the request and runs the client until it disconnects.
// The connection is anonymous until it sends user-connected.
func HandleWebSocket(hub *chat.Hub, upgrader websocket.Upgrader, rateLimiter *limiter.KeyedRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(hub, conn)
		logx.Info("WebSocket connection established", "conn_id", client.ID())

		client.Serve()
	}
}
