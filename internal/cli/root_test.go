package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// TestExitStatus_WrappedCLIError verifies a CLIError keeps its exit code
// even when wrapped upstream with fmt.Errorf("...: %w", err).
func TestExitStatus_WrappedCLIError(t *testing.T) {
	cliErr := model.WrapCLIError(model.ExitNoFreePort, "no free port",
		errors.New("all in use"))
	wrapped := fmt.Errorf("up: %w", cliErr)

	code, message, underlying := exitStatus(wrapped)
	assert.Equal(t, model.ExitNoFreePort, code)
	assert.Equal(t, "no free port", message)
	assert.EqualError(t, underlying, "all in use")
}

// TestExitStatus_GenericError verifies other errors exit with code 1.
func TestExitStatus_GenericError(t *testing.T) {
	code, message, underlying := exitStatus(errors.New("boom"))
	assert.Equal(t, model.ExitGeneralError, code)
	assert.Equal(t, "boom", message)
	assert.Nil(t, underlying)
}
