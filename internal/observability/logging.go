// Package observability configures logging and the conversion metrics.
package observability

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var levels = map[string]logrus.Level{
	"error": logrus.ErrorLevel,
	"warn":  logrus.WarnLevel,
	"info":  logrus.InfoLevel,
	"debug": logrus.DebugLevel,
	"trace": logrus.TraceLevel,
}

// ConfigureLogger sets the level and formatter of the standard logrus logger.
func ConfigureLogger(level, format string) error {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		return errors.Errorf("unknown log level %q", level)
	}

	switch strings.ToLower(format) {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", format)
	}
	logrus.SetLevel(lvl)
	return nil
}
