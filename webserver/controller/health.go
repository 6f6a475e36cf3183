package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/waverify/waverify/common"
	"github.com/waverify/waverify/service"
)

var sessions *service.Sessions

func Init(s *service.Sessions) {
	sessions = s
}

func GetHealth(ctx *gin.Context) {
	common.ResponseSuccess(ctx, gin.H{
		"Status": "ok",
	})
}

// GetSessions reports live and ready session counts for operators.
func GetSessions(ctx *gin.Context) {
	live, ready := sessions.Registry().Counts()
	common.ResponseSuccess(ctx, gin.H{
		"Live":  live,
		"Ready": ready,
	})
}
