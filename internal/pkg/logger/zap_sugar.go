package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type sugaredLogger struct {
	logger *zap.SugaredLogger
}

// NewSugarLogger builds the production (JSON) logger at the given level.
func NewSugarLogger(level zapcore.Level) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create a logger: %v", err)
	}
	return &sugaredLogger{logger: l.Sugar().With("service", "lso-gateway")}, nil
}

func (l *sugaredLogger) Debugw(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *sugaredLogger) Infow(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *sugaredLogger) Warnw(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}

func (l *sugaredLogger) Errorw(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *sugaredLogger) Panicw(msg string, keysAndValues ...any) {
	l.logger.Panicw(msg, keysAndValues...)
}

func (l *sugaredLogger) Fatalw(msg string, keysAndValues ...any) {
	l.logger.Fatalw(msg, keysAndValues...)
}

func (l *sugaredLogger) Sync() error {
	return l.logger.Sync()
}
