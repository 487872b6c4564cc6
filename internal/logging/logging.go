// Package logging configures the process-wide logrus logger.
package logging

import (
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Setup sets the standard logger level from a LOG_LEVEL style string and routes
// chi's request logger through it. Unknown levels fall back to info.
func Setup(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		log.Warnf("Unknown log level %q, defaulting to info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.StandardLogger(),
		NoColor: true,
	})
}
