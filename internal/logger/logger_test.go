package logger_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/prana-run/prana/internal/logger"
)

func TestNew_ShouldSetGlobalLevel_FromValidLevelName(t *testing.T) {
	logger.New("warn", false)

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestNew_ShouldFallBackToInfo_WhenLevelNameIsInvalid(t *testing.T) {
	logger.New("not-a-level", false)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNew_ShouldReturnAUsableLogger_InPrettyMode(t *testing.T) {
	log := logger.New("debug", true)

	assert.NotNil(t, log.Debug())
}
