package service

import "github.com/planory/draftguard/internal/logger"

type logNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier returns a Notifier that writes notices to the log.
// Useful as a default when no UI surface is attached.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{logger: log}
}

func (n *logNotifier) Notify(level NoticeLevel, message string) {
	switch level {
	case NoticeError:
		n.logger.Error().Str("notice", string(level)).Msg(message)
	case NoticeWarning:
		n.logger.Warn().Str("notice", string(level)).Msg(message)
	default:
		n.logger.Info().Str("notice", string(level)).Msg(message)
	}
}
