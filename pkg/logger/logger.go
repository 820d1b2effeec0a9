package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Printf adapts a slog.Logger to printf-style callbacks used by third-party
// drivers (chromedp, colly debuggers).
func Printf(log *slog.Logger, level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		if log == nil {
			return
		}
		msg := strings.TrimSpace(fmt.Sprintf(format, args...))
		log.Log(context.Background(), level, msg)
	}
}
