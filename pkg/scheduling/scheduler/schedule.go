package scheduler

import (
	"time"

	"github.com/vnykmshr/taskpool/pkg/logging"
)

// intervalSchedule fires at a fixed delay after each activation. Unlike
// cron.Every it keeps sub-second intervals.
type intervalSchedule struct {
	interval time.Duration
}

func every(interval time.Duration) intervalSchedule {
	return intervalSchedule{interval: interval}
}

// Next implements cron.Schedule.
func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.interval)
}

// cronLogger routes the cron runner's own logs to a logging.Logger.
type cronLogger struct {
	logger logging.Logger
	name   string
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, l.fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := append(l.fields(keysAndValues), logging.F("error", err))
	l.logger.Error("cron: "+msg, fields...)
}

func (l cronLogger) fields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2+1)
	fields = append(fields, logging.F("scheduler", l.name))
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logging.F(key, keysAndValues[i+1]))
	}
	return fields
}
