package indicator

import "github.com/charmbracelet/log"

// Log writes each text as an info line.
type Log struct {
	logger *log.Logger
}

func NewLog(logger *log.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SetText(text string) {
	l.logger.Info("now playing", "text", text)
}
