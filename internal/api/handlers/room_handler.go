package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/room"
	"github.com/yoockh/yootranslate/internal/services"
)

// CallServer runs calls; *workers.Manager implements it.
type CallServer interface {
	Serve(ctx context.Context, r room.Room) (models.CallSnapshot, error)
	Snapshots() []models.CallSnapshot
}

type RoomHandler struct {
	admission services.AdmissionService
	calls     CallServer
	log       *logrus.Logger
	upgrader  websocket.Upgrader
}

func NewRoomHandler(admission services.AdmissionService, calls CallServer, log *logrus.Logger) *RoomHandler {
	return &RoomHandler{
		admission: admission,
		calls:     calls,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8 << 10,
			WriteBufferSize: 8 << 10,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Connect is GET /api/room/connect?token=... . The admission token is redeemed
// before the upgrade so a rejected caller gets a JSON error, not a closed socket.
func (h *RoomHandler) Connect(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		raw = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	}

	claims, err := h.admission.Redeem(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("identity", claims.Identity)
	c.Set("room", claims.Room)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response
		return
	}

	r := room.NewWSRoom(conn, claims.Room, claims.Identity, h.log)
	defer r.Close("disconnect")

	snap, err := h.calls.Serve(c.Request.Context(), r)
	if err != nil {
		h.log.WithError(err).WithField("room", claims.Room).Warn("call rejected")
		return
	}
	h.log.WithFields(logrus.Fields{
		"session_id": snap.SessionID,
		"room":       snap.Room,
		"identity":   snap.Identity,
		"reason":     snap.EndReason,
		"transport":  r.Reason(),
		"turns":      snap.Turns,
	}).Info("call finished")
}
