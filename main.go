package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/waverify/waverify/bot"
	_ "github.com/waverify/waverify/bot/command_handler"
	"github.com/waverify/waverify/config"
	"github.com/waverify/waverify/db"
	"github.com/waverify/waverify/pkg/log"
	"github.com/waverify/waverify/service"
	"github.com/waverify/waverify/wa"
	"github.com/waverify/waverify/webserver/router"
)

func main() {
	conf := config.GetConfig()
	if conf.BotToken == "" {
		log.Fatal("bot-token is not set")
	}
	sessions := service.NewSessions(service.NewRegistry(), wa.NewCredentialStore(), service.Options{
		Protocol:    conf.Protocol,
		ArtifactDir: conf.ArtifactDir,
		CheckDelay:  time.Duration(conf.CheckDelayMs) * time.Millisecond,
	})
	GoBackgrounds()
	go func() {
		if err := router.Run(conf.Address, sessions); err != nil {
			log.Fatal("webserver: %v", err)
		}
	}()
	go func() {
		if _, err := bot.New(conf.BotToken, sessions, conf.ChunkSize, conf.ArtifactDir, nil); err != nil {
			log.Fatal("bot: %v", err)
		}
	}()
	log.Info("waverify is up")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutting down")
	sessions.Shutdown()
	if err := db.CloseDB(); err != nil {
		log.Warn("close db: %v", err)
	}
}
