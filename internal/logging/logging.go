// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON logrus logger at the given level. When file is set the
// output also goes to a size-rotated log file. Unknown levels fall back to info.
func New(level, file string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if file != "" {
		w := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    64, // MB
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, w))
	}

	if err != nil && level != "" {
		logger.Warnf("Unknown log level %q, using info", level)
	}
	return logger
}
