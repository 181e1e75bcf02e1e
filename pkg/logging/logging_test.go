// Test Type: Unit Test
// Description: Tests for the logging package - setup and component loggers

package logging_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/snapback/pkg/logging"
)

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{9, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		logging.SetupLogger(tt.verbosity)
		assert.Equal(t, tt.want, zerolog.GlobalLevel())
	}
}

func TestGetLogger(t *testing.T) {
	logger := logging.GetLogger("store")
	logger.Debug().Msg("does not panic")
}
