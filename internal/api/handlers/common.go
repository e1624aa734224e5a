package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yootranslate/internal/utils"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	msg := utils.SafeMessage(err)
	if status == http.StatusInternalServerError {
		msg = "Internal server error: " + msg
	}
	_ = c.Error(err)
	c.JSON(status, APIError{Error: msg})
}

// queryLimit reads ?limit=, clamped to [1, max].
func queryLimit(c *gin.Context, def, max int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
