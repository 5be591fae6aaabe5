// Package log configures loggers for decode pipelines.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("SIGROK_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. It logs at debug level when
// SIGROK_DEBUG is set to a true value.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
