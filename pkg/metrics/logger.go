package metrics

import "go.uber.org/zap"

// ZapLogger adapts a [zap.SugaredLogger] into the plain func(string) shape
// that [github.com/clapdb/memory/pkg/arena.Config.Logger] expects, so
// arena trace lines flow through the same structured logger the rest of a
// production binary uses rather than a bespoke sink.
func ZapLogger(logger *zap.SugaredLogger) func(string) {
	return func(line string) {
		logger.Debug(line)
	}
}
