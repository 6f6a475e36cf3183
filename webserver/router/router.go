package router

import (
	"github.com/gin-gonic/gin"
	"github.com/waverify/waverify/service"
	"github.com/waverify/waverify/webserver/controller"
)

func Run(address string, sessions *service.Sessions) error {
	controller.Init(sessions)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api := engine.Group("/api")
	{
		api.GET("health", controller.GetHealth)
		api.GET("sessions", controller.GetSessions)
	}
	return engine.Run(address)
}
