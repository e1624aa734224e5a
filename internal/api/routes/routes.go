package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yootranslate/internal/api/handlers"
	"github.com/yoockh/yootranslate/internal/api/middleware"
)

type Deps struct {
	Admission *handlers.AdmissionHandler
	Room      *handlers.RoomHandler
	Ops       *handlers.OpsHandler
	OpsSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.GET("/getActiveRoom", d.Admission.GetActiveRoom)
	api.POST("/getToken", d.Admission.GetToken)
	if d.Room != nil {
		api.GET("/room/connect", d.Room.Connect)
	}

	if d.Ops == nil {
		return
	}
	ops := api.Group("/ops")
	ops.Use(middleware.OpsAuth(d.OpsSecret), middleware.RequireRole("ops", "admin"))

	ops.GET("/calls", d.Ops.LiveCalls)
	ops.GET("/calls/:session_id", d.Ops.Session)
	ops.GET("/calls/:session_id/turns", d.Ops.Turns)
	ops.GET("/rooms", d.Ops.Rooms)
	ops.GET("/rooms/:room/calls", d.Ops.RoomCalls)
	ops.GET("/records", d.Ops.Records)
}
