package logging

import (
	"github.com/hashicorp/go-hclog"

	"comms-backend/internal/utils"
)

// New returns a named logger with the level taken from the LOG_LEVEL
// environment variable (default INFO). Components each get their own name
// so log lines can be filtered per subsystem.
func New(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(utils.GetEnv("LOG_LEVEL", "INFO")),
	})
}
