// Package logging builds the logrus logger shared by the server and the
// notifier worker.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger at the given level. Development gets colourless
// text output; every other environment gets JSON. An unknown level falls
// back to info and is reported through the returned logger.
func New(level, env string) *logrus.Logger {
	return newLogger(os.Stdout, level, env)
}

func newLogger(w io.Writer, level, env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	if env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("level", level).Warn("unknown log level, using info")
		return log
	}
	log.SetLevel(lvl)
	return log
}
