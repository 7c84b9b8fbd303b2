package log

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

var (
	innerLogger          *Logger
	loggerInitializeOnce sync.Once
)

type Logger struct {
	zapLogger *zap.Logger
	zapLevel  zap.AtomicLevel
}

// Config selects encoding and sinks for New.
type Config struct {
	Level       Level
	Encoding    string // "json" or "console"
	OutputPaths []string
}

func DefaultConfig() Config {
	return Config{
		Level:       LevelInfo,
		Encoding:    "json",
		OutputPaths: []string{"stderr"},
	}
}

func New(level Level) *Logger {
	cfg := DefaultConfig()
	cfg.Level = level
	logger, err := NewWithConfig(cfg)
	if err != nil {
		panic(err)
	}
	return logger
}

func NewWithConfig(cfg Config) (*Logger, error) {
	zapLevel := zap.NewAtomicLevelAt(toZapLevel(cfg.Level))
	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Encoding == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stderr"}
	}
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	logger := &Logger{zapLogger: zapLogger, zapLevel: zapLevel}
	loggerInitializeOnce.Do(func() { innerLogger = logger })
	return logger, nil
}

// NewWithCore wraps an existing core, e.g. a zaptest observer.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{
		zapLogger: zap.New(core),
		zapLevel:  zap.NewAtomicLevelAt(zap.DebugLevel),
	}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zapLogger: zap.NewNop(), zapLevel: zap.NewAtomicLevelAt(zap.FatalLevel)}
}

// Provide returns the first logger built by New, or a no-op logger.
func Provide() *Logger {
	if innerLogger == nil {
		return Nop()
	}
	return innerLogger
}

// ParseLevel maps config strings ("debug", "warn", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "silent", "off":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l *Logger) Log(level Level, msg string, fields ...Field) {
	if !l.checkLevel(level) {
		return
	}
	l.zapLogger.Log(toZapLevel(level), msg, toZapFields(fields...)...)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.zapLogger.Debug(msg, toZapFields(fields...)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, toZapFields(fields...)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, toZapFields(fields...)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, toZapFields(fields...)...)
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{
		zapLogger: l.zapLogger.With(toZapFields(fields...)...),
		zapLevel:  l.zapLevel,
	}
}

// WithContext attaches the test name stored by ContextWithTest, if any.
func (l *Logger) WithContext(ctx context.Context) Log {
	if name, ok := ctx.Value(testNameKey{}).(string); ok && name != "" {
		return l.With(String("test", name))
	}
	return l
}

func (l *Logger) Named(name string) Log {
	return &Logger{zapLogger: l.zapLogger.Named(name), zapLevel: l.zapLevel}
}

func (l *Logger) SetLevel(level Level) {
	l.zapLevel.SetLevel(toZapLevel(level))
}

func (l *Logger) GetLevel() Level {
	return fromZapLevel(l.zapLevel.Level())
}

func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

func (l *Logger) checkLevel(level Level) bool {
	return l.zapLogger.Core().Enabled(toZapLevel(level))
}

type testNameKey struct{}

// ContextWithTest tags ctx so WithContext loggers carry the running test name.
func ContextWithTest(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, testNameKey{}, name)
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	case LevelFatal, LevelSilent:
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func fromZapLevel(level zapcore.Level) Level {
	switch level {
	case zap.DebugLevel:
		return LevelDebug
	case zap.InfoLevel:
		return LevelInfo
	case zap.WarnLevel:
		return LevelWarn
	case zap.ErrorLevel:
		return LevelError
	case zap.FatalLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}

func toZapFields(fields ...Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case BoolType:
			zapFields[i] = zap.Bool(f.Key, f.Value.(bool))
		case DurationType:
			zapFields[i] = zap.Duration(f.Key, f.Value.(time.Duration))
		case Float64Type:
			zapFields[i] = zap.Float64(f.Key, f.Value.(float64))
		case IntType:
			zapFields[i] = zap.Int(f.Key, f.Value.(int))
		case Int64Type:
			zapFields[i] = zap.Int64(f.Key, f.Value.(int64))
		case StringType:
			zapFields[i] = zap.String(f.Key, f.Value.(string))
		case StringsType:
			zapFields[i] = zap.Strings(f.Key, f.Value.([]string))
		case Uint64Type:
			zapFields[i] = zap.Uint64(f.Key, f.Value.(uint64))
		case StringerType:
			if s, ok := f.Value.(fmt.Stringer); ok && s != nil {
				zapFields[i] = zap.Stringer(f.Key, s)
			} else {
				zapFields[i] = zap.Any(f.Key, f.Value)
			}
		case ErrorType:
			zapFields[i] = zap.NamedError(f.Key, f.Value.(error))
		default:
			zapFields[i] = zap.Any(f.Key, f.Value)
		}
	}
	return zapFields
}
