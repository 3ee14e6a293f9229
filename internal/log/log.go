package log

import (
	"log/slog"
	"os"
)

// LoggerOpts drops the time attribute so repeated runs stay diffable.
var LoggerOpts = &slog.HandlerOptions{
	Level: slog.LevelInfo,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == "time" {
			return slog.Attr{}
		}
		return a
	},
}

var DefaultLogger = slog.New(slog.NewTextHandler(os.Stderr, LoggerOpts))

func Default() *slog.Logger { return DefaultLogger }
