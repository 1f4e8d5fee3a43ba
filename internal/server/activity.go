package server

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const activityPingInterval = 25 * time.Second

// StreamActivity upgrades the request to a websocket and relays the
// organization's activity events until the client goes away. A periodic ping
// detects dead peers so the hub does not accumulate stale subscribers.
func (s *Server) StreamActivity(c *gin.Context) {
	organizationID := c.Query("organization_id")
	if organizationID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	org, err := s.orgs.FindOrganization(c.Request.Context(), s.db, organizationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if org == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	conn, err := websocket.Accept(upgradeResponseWriter(c.Request, c.Writer), c.Request, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	sub := s.hub.Subscribe(organizationID)
	defer sub.Close()

	s.log.Info("activity subscriber connected",
		zap.String("organization_id", organizationID),
		zap.Int("subscribers", s.hub.SubscriberCount(organizationID)))

	// CloseRead consumes pongs and close frames; the returned context ends
	// when the peer goes away.
	ctx := conn.CloseRead(c.Request.Context())
	ticker := time.NewTicker(activityPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-sub.Events():
			if !ok {
				conn.Close(websocket.StatusTryAgainLater, "subscriber lagged")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
