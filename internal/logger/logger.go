// Package logger wraps a process-wide zap logger. Init must be called once
// from main; before that a development logger writing to stdout is used so
// tests and tools can log without setup.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures Init.
type Options struct {
	Level     string // debug, info, warn, error
	JSON      bool   // JSON encoder instead of the colored console one
	SentryDSN string // when set, error entries are also sent to Sentry
	Env       string
}

var (
	mu     sync.RWMutex
	logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zapcore.InfoLevel,
	))
)

// Init replaces the process logger.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)}
	if opts.SentryDSN != "" {
		sc, err := newSentryCore(opts.SentryDSN, opts.Env, zapcore.ErrorLevel)
		if err != nil {
			return err
		}
		cores = append(cores, sc)
	}

	mu.Lock()
	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	mu.Unlock()
	return nil
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func sugar() *zap.SugaredLogger { return current().Sugar() }

// Sync flushes buffered entries. Call before exiting.
func Sync() {
	err := current().Sync()
	if err != nil && !strings.Contains(err.Error(), "sync /dev/stdout") {
		Errorf("failed to drain log queues: %s", err)
	}
}

// Infof, Warningf and Errorf log a printf-style message at their level.
func Infof(format string, v ...interface{})    { sugar().Infof(format, v...) }
func Warningf(format string, v ...interface{}) { sugar().Warnf(format, v...) }
func Errorf(format string, v ...interface{})   { sugar().Errorf(format, v...) }

// Infow logs a message with additional context fields.
func Infow(msg string, keysAndValues ...interface{}) { sugar().Infow(msg, keysAndValues...) }

// Warningw is Infow at warn level.
func Warningw(msg string, keysAndValues ...interface{}) { sugar().Warnw(msg, keysAndValues...) }

// Errorw is Infow at error level.
func Errorw(msg string, keysAndValues ...interface{}) { sugar().Errorw(msg, keysAndValues...) }
