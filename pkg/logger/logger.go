package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	once sync.Once
	log  *zap.Logger
)

// L returns the process-wide logger, building it on first use.
// APP_ENV=production switches to the JSON production config.
func L() *zap.Logger {
	once.Do(func() {
		var err error
		if os.Getenv("APP_ENV") == "production" {
			log, err = zap.NewProduction()
		} else {
			log, err = zap.NewDevelopment()
		}
		if err != nil {
			log = zap.NewNop()
		}
	})
	return log
}

// S is a convenience shortcut for the sugared logger.
func S() *zap.SugaredLogger {
	return L().Sugar()
}
