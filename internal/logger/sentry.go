package logger

import (
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// sentryCore forwards entries at or above its level to Sentry. Fields with
// string values become event tags.
type sentryCore struct {
	zapcore.LevelEnabler
	client *sentry.Client
	fields []zapcore.Field
}

func newSentryCore(dsn, env string, level zapcore.LevelEnabler) (zapcore.Core, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	})
	if err != nil {
		return nil, fmt.Errorf("start sentry client: %w", err)
	}
	return &sentryCore{LevelEnabler: level, client: client}, nil
}

func (sc *sentryCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(sc.fields)+len(fields))
	merged = append(merged, sc.fields...)
	merged = append(merged, fields...)
	return &sentryCore{LevelEnabler: sc.LevelEnabler, client: sc.client, fields: merged}
}

func (sc *sentryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if sc.Enabled(ent.Level) {
		return ce.AddCore(ent, sc)
	}
	return ce
}

func (sc *sentryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	err := errors.New(ent.Message)
	event := sentry.NewEvent()
	event.Level = sentry.Level(ent.Level.String())
	event.Message = ent.Message
	event.Timestamp = ent.Time
	event.Exception = append(event.Exception, sentry.Exception{
		Value:      ent.Message,
		Type:       ent.LoggerName,
		Stacktrace: sentry.ExtractStacktrace(err),
	})

	scope := sentry.NewScope()
	for _, f := range append(sc.fields, fields...) {
		if f.Type == zapcore.StringType && f.String != "" {
			scope.SetTag(f.Key, f.String)
		}
	}
	sc.client.CaptureEvent(event, &sentry.EventHint{OriginalException: err}, scope)
	return nil
}

func (sc *sentryCore) Sync() error {
	if !sc.client.Flush(5 * time.Second) {
		return errors.New("failed to flush sentry, some events may not have been sent")
	}
	return nil
}
