package logger

import (
  "os"
  "strings"

  "go.uber.org/zap"
  "go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// Init sets up the global logger. Call once in main().
func Init() error {
  cfg := zap.NewProductionConfig()
  cfg.EncoderConfig.TimeKey = "ts"
  cfg.EncoderConfig.MessageKey = "msg"
  if level := os.Getenv("LOG_LEVEL"); level != "" {
    cfg.Level.SetLevel(parseLevel(level))
  }
  var err error
  Log, err = cfg.Build()
  return err
}

// Sync flushes buffered entries; safe to defer in main.
func Sync() {
  if Log != nil {
    _ = Log.Sync()
  }
}

func parseLevel(s string) zapcore.Level {
  switch strings.ToLower(s) {
  case "debug":
    return zapcore.DebugLevel
  case "warn":
    return zapcore.WarnLevel
  case "error":
    return zapcore.ErrorLevel
  default:
    return zapcore.InfoLevel
  }
}
