package config

import (
	log2 "log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stevenroose/gonfig"
	"github.com/waverify/waverify/common"
	"github.com/waverify/waverify/db"
	"github.com/waverify/waverify/pkg/log"
)

type Params struct {
	Address             string `id:"address" short:"a" default:"127.0.0.1:14832" desc:"Listening address of the operational API"`
	Config              string `id:"config" short:"c" default:"$HOME/.config/waverify" desc:"Waverify configuration directory"`
	BotToken            string `id:"bot-token" desc:"Telegram bot token"`
	Protocol            string `id:"protocol" default:"whatsapp" desc:"Registered messaging session driver to use"`
	CheckDelayMs        int64  `id:"check-delay-ms" default:"500" desc:"Delay between two lookups in one bulk job"`
	ChunkSize           int    `id:"chunk-size" default:"4096" desc:"Maximum characters per outbound chat message"`
	ArtifactDir         string `id:"artifact-dir" desc:"Directory for transient QR and report files; defaults to the config directory"`
	LogLevel            string `id:"log-level" default:"info" desc:"Optional values: trace, debug, info, warn or error"`
	LogFile             string `id:"log-file" desc:"The path of log file"`
	LogMaxDays          int64  `id:"log-max-days" default:"3" desc:"Maximum number of days to keep log files"`
	LogDisableColor     bool   `id:"log-disable-color"`
	LogDisableTimestamp bool   `id:"log-disable-timestamp"`
}

var params Params

func initFunc() {
	err := gonfig.Load(&params, gonfig.Conf{
		FileDisable:       true,
		FlagIgnoreUnknown: false,
		EnvPrefix:         "WAVERIFY_",
	})
	if err != nil {
		if err.Error() != "unexpected word while parsing flags: '-test.v'" {
			log2.Fatal(err)
		}
	}
	// replace all dots of the filename with underlines
	params.Config = filepath.Join(
		filepath.Dir(params.Config),
		strings.ReplaceAll(filepath.Base(params.Config), ".", "_"),
	)
	// expand '~' with user home
	params.Config, err = common.HomeExpand(params.Config)
	if err != nil {
		log2.Fatal(err)
	}
	params.LogFile, err = common.HomeExpand(params.LogFile)
	if err != nil {
		log2.Fatal(err)
	}
	if strings.Contains(params.Config, "$HOME") {
		if h, err := os.UserHomeDir(); err == nil {
			params.Config = strings.ReplaceAll(params.Config, "$HOME", h)
		}
	}
	if err := os.MkdirAll(params.Config, 0700); err != nil {
		log2.Fatal(err)
	}
	if params.ArtifactDir == "" {
		params.ArtifactDir = params.Config
	}
	if err := os.MkdirAll(params.ArtifactDir, 0700); err != nil {
		log2.Fatal(err)
	}
	logWay := "console"
	if params.LogFile != "" {
		logWay = "file"
	}
	log.InitLog(logWay, params.LogFile, params.LogLevel, params.LogMaxDays, params.LogDisableColor, params.LogDisableTimestamp)
	db.InitDB(params.Config)
}

var once sync.Once

func GetConfig() *Params {
	once.Do(initFunc)
	return &params
}
