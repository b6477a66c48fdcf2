// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects the logger's level and output format. Empty fields use Info and text.
type Options struct {
	Level  string
	Format string
	Out    io.Writer
}

// OptionsFromEnv reads LOG_LEVEL and LOG_FORMAT.
func OptionsFromEnv() Options {
	return Options{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")}
}

func NewLogger(o Options) *logrus.Logger {
	logger := logrus.New()
	if o.Out != nil {
		logger.SetOutput(o.Out)
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(o.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(o.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	if o.Level != "" && err != nil {
		logger.WithField("level", o.Level).Warn("unknown log level, using info")
	}
	return logger
}
