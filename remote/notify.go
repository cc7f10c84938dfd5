package remote

import (
	"github.com/rs/zerolog"
)

// LogNotifier is the default Notifier: it writes outcomes to a zerolog
// logger. Frontends replace it with something user-visible.
type LogNotifier struct {
	log zerolog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Success(msg string) {
	n.log.Info().Msg(msg)
}

func (n *LogNotifier) Warn(msg string) {
	n.log.Warn().Msg(msg)
}

func (n *LogNotifier) Error(msg string, err error) {
	n.log.Error().Err(err).Msg(msg)
}
