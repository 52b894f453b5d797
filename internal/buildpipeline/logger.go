package buildpipeline

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
)

// SetLogger installs the logger used by the pipeline. Passing nil
// restores the no-op default.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		logger = zap.NewNop()
		return
	}
	logger = l
}

func log() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func logEvent(evt Event) {
	fields := []zap.Field{
		zap.String("stage", string(evt.Stage)),
		zap.String("status", string(evt.Status)),
	}
	if evt.Unit != "" {
		fields = append(fields, zap.String("module", evt.Unit))
	}
	if evt.Elapsed > 0 {
		fields = append(fields, zap.Duration("elapsed", evt.Elapsed))
	}
	if evt.Err != nil {
		log().Error("pipeline stage failed", append(fields, zap.Error(evt.Err))...)
		return
	}
	log().Debug("pipeline stage", fields...)
}
