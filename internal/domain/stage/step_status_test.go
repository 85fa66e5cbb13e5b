package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

func TestStepStatus_Predicates(t *testing.T) {
	tests := []struct {
		status      StepStatus
		needsAction bool
		terminal    bool
		succeeded   bool
	}{
		{StatusSatisfied, false, true, true},
		{StatusNeedsApply, true, false, false},
		{StatusApplied, false, true, true},
		{StatusFailed, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.needsAction, tt.status.NeedsAction())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.succeeded, tt.status.Succeeded())
		})
	}
}

func TestAlwaysApply(t *testing.T) {
	status, err := AlwaysApply{}.Check(NewRunContext(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsApply, status)
}

func TestRunContext_Logger(t *testing.T) {
	rc := NewRunContext(context.Background())
	assert.IsType(t, &logging.NopLogger{}, rc.Logger())

	logger := logging.NewConsoleLogger()
	rc = rc.WithLogger(logger)
	assert.Same(t, logger, rc.Logger())
	assert.Equal(t, ports.Logger(logger), ports.LoggerFromContext(rc.Context()))
}
