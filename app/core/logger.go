package core

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger 标准输出为文本，配置了 log.path 时另写一份 JSON 到滚动文件
func NewLogger(cfg Log) *slog.Logger {
	if cfg.Path == "" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	}
	return newFanoutLogger(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    500, // megabytes
		MaxBackups: 3,
		MaxAge:     28, //days
		Compress:   true,
	}, cfg.SlogLevel())
}

func newFanoutLogger(stdout, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}
