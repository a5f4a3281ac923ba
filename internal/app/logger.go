package app

import (
	"strings"

	"github.com/mellystark/visitormanagement/pkg/logger"
)

const serviceName = "visitor-api"

// ConfigureLogging initialises the global logger. Level defaults to info and
// format to json; every entry carries the service name.
func ConfigureLogging(level, format string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.InitWithOptions(level, logger.Options{
		Format: strings.TrimSpace(format),
		Fields: map[string]string{"service": serviceName},
	})
}
