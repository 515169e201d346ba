package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/types"
	"github.com/plank-dev/plank/internal/utils"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocket streams refresh events for one workspace to its owner and
// members until the client goes away.
func (h *Handler) WebSocket(c *gin.Context) {
	workspaceID, ok := pathID(c, utils.GetWorkspaceID)
	if !ok {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	allowed, err := h.Services.Workspaces.HasAccess(c.Request.Context(), workspaceID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this workspace"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || types.OriginAllowed(h.AllowedOrigins, origin)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "workspace_id", workspaceID, "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := events.NewClient(conn)
	h.Hub.Register(workspaceID, client)

	defer func() {
		h.Hub.Unregister(workspaceID, client)
		conn.Close()

		slog.Debug("websocket connection closed", "workspace_id", workspaceID)
	}()

	err = client.WriteJSON(map[string]string{
		"type":         "connected",
		"message":      "WebSocket connection established",
		"workspace_id": workspaceID,
	})

	if err != nil {
		slog.Warn("failed to send welcome message", "workspace_id", workspaceID, "error", err)
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := client.Ping(); err != nil {
					slog.Debug("websocket ping failed", "workspace_id", workspaceID, "error", err)
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error", "workspace_id", workspaceID, "error", err)
			}
			return
		}
	}
}
