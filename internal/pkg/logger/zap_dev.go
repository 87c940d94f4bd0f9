package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type developmentLogger struct {
	logger *zap.Logger
}

// NewDevelopmentLogger creates the console logger used when running locally.
func NewDevelopmentLogger(level zapcore.Level) (Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &developmentLogger{logger: zapLogger}, nil
}

// toZapFields turns the sugared key/value pairs into typed fields. An odd
// trailing key or a non string key gets reported instead of panicking.
func (l *developmentLogger) toZapFields(keysAndValues ...any) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 >= len(keysAndValues) {
			fields = append(fields, zap.Any("dangling_key", keysAndValues[i]))
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (l *developmentLogger) Debugw(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, l.toZapFields(keysAndValues...)...)
}

func (l *developmentLogger) Infow(msg string, keysAndValues ...any) {
	l.logger.Info(msg, l.toZapFields(keysAndValues...)...)
}

func (l *developmentLogger) Warnw(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, l.toZapFields(keysAndValues...)...)
}

func (l *developmentLogger) Errorw(msg string, keysAndValues ...any) {
	l.logger.Error(msg, l.toZapFields(keysAndValues...)...)
}

func (l *developmentLogger) Panicw(msg string, keysAndValues ...any) {
	l.logger.Panic(msg, l.toZapFields(keysAndValues...)...)
}

func (l *developmentLogger) Fatalw(msg string, keysAndValues ...any) {
	l.logger.Fatal(msg, l.toZapFields(keysAndValues...)...)
}

func (l *developmentLogger) Sync() error {
	return l.logger.Sync()
}
