package utils

import "go.uber.org/zap"

// SugaredAdapter exposes a zap logger through the loosely-typed
// (msg, keysAndValues...) shape the application services expect.
type SugaredAdapter struct {
	sugar *zap.SugaredLogger
}

// NewSugaredAdapter wraps a zap logger for use by the service layer.
func NewSugaredAdapter(logger *zap.Logger) *SugaredAdapter {
	return &SugaredAdapter{sugar: logger.Sugar()}
}

// Info logs at info level with alternating key/value pairs.
func (a *SugaredAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.sugar.Infow(msg, keysAndValues...)
}

// Error logs at error level with alternating key/value pairs.
func (a *SugaredAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.sugar.Errorw(msg, keysAndValues...)
}
