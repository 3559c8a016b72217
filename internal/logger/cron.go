package logger

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// CronLogger adapts l to cron.Logger. cron's key/value pairs become fields;
// its info messages are logged at DEBUG since they fire on every tick.
func CronLogger(l *Logger) cron.Logger {
	return cronLogger{l: l}
}

type cronLogger struct {
	l *Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, pairs(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, pairs(keysAndValues), err)
}

func pairs(keysAndValues []interface{}) Fields {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(Fields, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields[key] = keysAndValues[i+1]
		} else {
			fields[key] = nil
		}
	}
	return fields
}
