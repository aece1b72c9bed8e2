package diktlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogrusLogger adapts a *logrus.Logger to the Logger contract. args are
// alternating key/value pairs, consistent with structured-logging call sites
// throughout the providers and supervisor packages.
type LogrusLogger struct {
	entry *logrus.Entry
}

// FileConfig configures the optional rotating file sink. When Path is empty
// no file is attached and the logger writes to stderr only.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogrusLogger builds a LogrusLogger. When file.Path is set, output is
// duplicated to a lumberjack-rotated file in addition to stderr.
func NewLogrusLogger(level logrus.Level, file FileConfig) *LogrusLogger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var out io.Writer = os.Stderr
	if file.Path != "" {
		rotator := &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    orDefault(file.MaxSizeMB, 50),
			MaxBackups: orDefault(file.MaxBackups, 5),
			MaxAge:     orDefault(file.MaxAgeDays, 28),
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}
	l.SetOutput(out)

	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func (l *LogrusLogger) Debug(msg string, args ...interface{}) { l.withFields(args).Debug(msg) }
func (l *LogrusLogger) Info(msg string, args ...interface{})  { l.withFields(args).Info(msg) }
func (l *LogrusLogger) Warn(msg string, args ...interface{})  { l.withFields(args).Warn(msg) }
func (l *LogrusLogger) Error(msg string, args ...interface{}) { l.withFields(args).Error(msg) }

// withFields turns a ...interface{} key/value list into logrus.Fields,
// tolerating an odd-length tail by logging it under "extra".
func (l *LogrusLogger) withFields(args []interface{}) *logrus.Entry {
	if len(args) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(args)/2+1)
	i := 0
	for ; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "field"
		}
		fields[key] = args[i+1]
	}
	if i < len(args) {
		fields["extra"] = args[i]
	}
	return l.entry.WithFields(fields)
}
