package log

import (
	"fmt"

	"github.com/v2rayA/beego/v2/logs"
)

var Log *logs.BeeLogger

func init() {
	Log = logs.NewLogger(200)
	Log.EnableFuncCallDepth(true)
	Log.SetLogFuncCallDepth(3)
}

func InitLog(logWay string, logFile string, logLevel string, maxDays int64, disableLogColor bool, disableLogTimestamp bool) {
	SetLogFile(logWay, logFile, maxDays, disableLogColor, disableLogTimestamp)
	SetLogLevel(logLevel)
}

// SetLogFile sets the way of logging: to console or to file.
func SetLogFile(logWay string, logFile string, maxDays int64, disableLogColor bool, disableLogTimestamp bool) {
	if logWay == "console" {
		params := fmt.Sprintf(`{"color": %v, "timestamp": %v}`, !disableLogColor, !disableLogTimestamp)
		_ = Log.SetLogger("console", params)
	} else {
		params := fmt.Sprintf(`{"filename": "%s", "maxdays": %d, "timestamp": %v}`, logFile, maxDays, !disableLogTimestamp)
		_ = Log.SetLogger("file", params)
	}
}

func SetLogLevel(logLevel string) {
	level := 4 // warning
	switch logLevel {
	case "error":
		level = 3
	case "warn":
		level = 4
	case "info":
		level = 6
	case "debug", "trace":
		level = 7
	default:
		level = 6
	}
	Log.SetLevel(level)
}

func Trace(format string, v ...interface{}) {
	Log.Trace(format, v...)
}

func Debug(format string, v ...interface{}) {
	Log.Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	Log.Info(format, v...)
}

func Warn(format string, v ...interface{}) {
	Log.Warn(format, v...)
}

func Error(format string, v ...interface{}) {
	Log.Error(format, v...)
}

func Fatal(format string, v ...interface{}) {
	Log.Critical(format, v...)
	panic(fmt.Sprintf(format, v...))
}
