package telegram

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// slogLogger routes the Bot API library's log lines (mostly polling
// failures) into the structured log.
type slogLogger struct{}

func (slogLogger) Println(v ...interface{}) {
	slog.Warn("telegram", "message", strings.TrimSpace(fmt.Sprintln(v...)))
}

func (slogLogger) Printf(format string, v ...interface{}) {
	slog.Warn("telegram", "message", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func init() {
	_ = tgbotapi.SetLogger(slogLogger{})
}
