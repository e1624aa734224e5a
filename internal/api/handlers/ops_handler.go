package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yootranslate/internal/room"
	"github.com/yoockh/yootranslate/internal/services"
	"github.com/yoockh/yootranslate/internal/utils"
)

// OpsHandler serves the operator endpoints. Admin and History may be nil when
// LiveKit or the stores are not configured.
type OpsHandler struct {
	calls   CallServer
	admin   room.Admin
	history services.CallHistoryService
}

func NewOpsHandler(calls CallServer, admin room.Admin, history services.CallHistoryService) *OpsHandler {
	return &OpsHandler{calls: calls, admin: admin, history: history}
}

func (h *OpsHandler) LiveCalls(c *gin.Context) {
	snaps := h.calls.Snapshots()
	c.JSON(http.StatusOK, gin.H{"calls": snaps, "count": len(snaps)})
}

func (h *OpsHandler) Rooms(c *gin.Context) {
	const op = "OpsHandler.Rooms"
	if h.admin == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "room administration is not configured", nil))
		return
	}
	rooms, err := h.admin.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "failed to list rooms", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *OpsHandler) RoomCalls(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	out, err := h.history.SessionsByRoom(c.Request.Context(), c.Param("room"), int64(queryLimit(c, 20, 100)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *OpsHandler) Session(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	out, err := h.history.Session(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *OpsHandler) Turns(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	out, err := h.history.Turns(c.Request.Context(), c.Param("session_id"), int64(queryLimit(c, 200, 1000)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"turns": out})
}

func (h *OpsHandler) Records(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	out, err := h.history.Records(c.Request.Context(), c.Query("room"), queryLimit(c, 20, 100))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

func (h *OpsHandler) requireHistory(c *gin.Context) bool {
	if h.history == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "OpsHandler", "call history is not configured", nil))
		return false
	}
	return true
}
