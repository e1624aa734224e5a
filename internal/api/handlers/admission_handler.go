package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yootranslate/internal/services"
	"github.com/yoockh/yootranslate/internal/utils"
)

const maxTokenRequestBytes = 16 << 10

type AdmissionHandler struct {
	admission services.AdmissionService
}

func NewAdmissionHandler(admission services.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{admission: admission}
}

type tokenResponse struct {
	Token string `json:"token"`
	Room  string `json:"room"`
}

// GetActiveRoom is GET /api/getActiveRoom.
func (h *AdmissionHandler) GetActiveRoom(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"room": h.admission.ActiveRoom()})
}

// GetToken is POST /api/getToken with body {"name": "...", "room": "..."}.
// The body is decoded loosely so a non-string name is reported as an invalid
// name rather than malformed JSON.
func (h *AdmissionHandler) GetToken(c *gin.Context) {
	const op = "AdmissionHandler.GetToken"

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTokenRequestBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "No JSON data provided", err))
		return
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || len(body) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "No JSON data provided", err))
		return
	}

	name, ok := body["name"].(string)
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "Invalid participant name", utils.ErrInvalidIdentity))
		return
	}
	var room string
	if v, present := body["room"]; present && v != nil {
		if room, ok = v.(string); !ok {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "Invalid room name format", utils.ErrInvalidRoomName))
			return
		}
	}

	tok, err := h.admission.IssueToken(c.Request.Context(), name, room)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: tok.Token, Room: tok.Room})
}
