// Package notify decouples user-facing notifications from the state
// providers. Providers report failures and auth prompts through a Notifier;
// the UI decides how to surface them.
package notify

import "go.uber.org/zap"

// Notifier receives one-shot, user-visible messages. A failed mutation
// produces exactly one Error call; a mutation attempted without a session
// produces exactly one AuthPrompt call and nothing else.
type Notifier interface {
	Info(msg string)
	Error(msg string)
	AuthPrompt(msg string)
}

// Logger is a Notifier that writes through a zap logger. It is the CLI's
// default sink.
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Info(msg string)  { l.log.Info(msg) }
func (l *Logger) Error(msg string) { l.log.Error(msg) }

func (l *Logger) AuthPrompt(msg string) {
	l.log.Warn(msg, zap.String("action", "sign in with 'eventup login'"))
}

// Discard drops all notifications.
type Discard struct{}

func (Discard) Info(string)       {}
func (Discard) Error(string)      {}
func (Discard) AuthPrompt(string) {}
