package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging sets the level and formatter of the standard logrus
// logger.  Unknown levels fall back to info.  Outside the dev
// environment the default format is JSON.
func ConfigureLogging(cfg Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	format := strings.ToLower(cfg.LogFormat)
	if format == "" {
		format = "json"
		if cfg.Env == "dev" {
			format = "text"
		}
	}
	if format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
}
