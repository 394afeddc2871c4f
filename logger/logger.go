package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	With(args ...interface{}) Logger
}

// Options configures a logrus backed Logger.
type Options struct {
	Output io.Writer
	Debug  bool
}

type LogrusLogger struct {
	entry *logrus.Entry
}

func New(opts Options) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		QuoteEmptyFields: true,
	})

	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	if opts.Debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l *LogrusLogger) Info(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Info(msg)
}

func (l *LogrusLogger) Debug(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Debug(msg)
}

func (l *LogrusLogger) Warn(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, args ...interface{}) {
	l.entry.WithFields(fields(args)).Error(msg)
}

func (l *LogrusLogger) With(args ...interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(fields(args))}
}

// fields turns alternating key/value arguments into logrus fields. A trailing
// key without a value is kept under "!BADKEY" like log/slog does.
func fields(args []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		f[fmt.Sprint(args[i])] = args[i+1]
	}
	return f
}
