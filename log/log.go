// Package log wraps zap behind the small Debugf/Infof/Warnf/Errorf/Fatalf
// surface the rest of this repo calls against, with file rotation handled
// by lumberjack.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the surface every layer above the event loop depends on,
// rather than depending on *zap.SugaredLogger directly.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// Options controls where and how logs are written.
type Options struct {
	// Filename is the log file path. Empty means stderr only.
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      zapcore.Level
}

// DefaultOptions returns the options used when config.yaml carries none.
func DefaultOptions() Options {
	return Options{
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Level:      zapcore.InfoLevel,
	}
}

// New builds a Logger from opts. With an empty Filename it writes to
// stderr only; otherwise it writes to both stderr and a rotated file.
func New(opts Options) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), opts.Level),
	}

	if opts.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		jsonEncoder := zapcore.NewJSONEncoder(encoderCfg)
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), opts.Level))
	}

	core := zapcore.NewTee(cores...)
	return &zapLogger{sugar: zap.New(core).Sugar()}
}

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *zapLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// Nop is a Logger that discards everything, used by tests that construct
// collaborators without caring about log output.
func Nop() Logger { return &zapLogger{sugar: zap.NewNop().Sugar()} }

// ParseLevel maps a config.yaml level string to a zapcore.Level, defaulting
// to info on anything unrecognized.
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
