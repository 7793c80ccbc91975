package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a nil-safe wrapper over zap. The zero value discards everything.
type Logger struct {
	zap *zap.Logger
}

func NewLogger(level string) (*Logger, error) {
	// convert the text logging level to zap.AtomicLevel
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = lvl
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{zap: logger.Named("shopflow")}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{}
}

// With returns a child logger carrying fields on every entry.
func (l Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.writer().With(fields...)}
}

// Debug logs a message at the debug level with optional fields.
func (l Logger) Debug(msg string, fields ...zap.Field) {
	l.writer().Debug(msg, fields...)
}

// Info logs a message at the info level with optional fields.
func (l Logger) Info(msg string, fields ...zap.Field) {
	l.writer().Info(msg, fields...)
}

// Warn logs a message at the warn level with optional fields.
func (l Logger) Warn(msg string, fields ...zapcore.Field) {
	l.writer().Warn(msg, fields...)
}

// Error logs a message at the error level with optional fields.
func (l Logger) Error(msg string, fields ...zap.Field) {
	l.writer().Error(msg, fields...)
}

// Sync flushes buffered entries.
func (l Logger) Sync() error {
	return l.writer().Sync()
}

func (l Logger) writer() *zap.Logger {
	if l.zap == nil {
		return zap.NewNop()
	}

	return l.zap
}
