package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"agency-scheduler/internal/config"
)

func TestNewLevels(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "debug"}, config.AppConfig{Name: "test"})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger = New(config.LoggingConfig{Level: "nonsense"}, config.AppConfig{Name: "test"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = New(config.LoggingConfig{}, config.AppConfig{Name: "test"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewConsoleFormat(t *testing.T) {
	logger := New(config.LoggingConfig{Format: "console", Output: "stderr"}, config.AppConfig{Name: "test"})
	logger.Info().Msg("console format smoke test")
}
