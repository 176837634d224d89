package job

import (
	"github.com/robfig/cron/v3"

	"github.com/iliyamo/cloudlab/internal/logger"
)

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Infow("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Schedule starts a cron scheduler running j on spec. A run still in
// progress makes the next tick skip. The caller stops the returned
// scheduler on shutdown.
func Schedule(spec string, j cron.Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
	if _, err := c.AddJob(spec, j); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
