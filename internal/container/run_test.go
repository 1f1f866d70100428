package container

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// TestContainerCommand verifies the in-container launch line: the required
// packages are installed first, then the app is started inline on the
// selected port, bound to all interfaces. The port publish cannot reach a
// loopback-only bind, and the entry point's __main__ block always uses its
// compiled-in port, so neither may leak into the container command.
func TestContainerCommand(t *testing.T) {
	spec := testLaunchSpec() // selected port 5003, fallback from 5002
	reqs := []model.Requirement{
		{Package: "flask", Module: "flask"},
		{Package: "flask-cors", Module: "flask_cors"},
	}

	cmd := containerCommand(spec, reqs)
	require.Len(t, cmd, 3)
	assert.Equal(t, []string{"sh", "-c"}, cmd[:2])

	install, run, found := strings.Cut(cmd[2], " && ")
	require.True(t, found, "packages must be installed before the app starts")
	assert.Equal(t, "python -m pip install flask flask-cors", install,
		"pip gets package names, not module names")
	assert.Contains(t, run, "from app import app")
	assert.Contains(t, run, "host='0.0.0.0'")
	assert.Contains(t, run, "port=5003",
		"must bind the selected port, not the entry point's default")
	assert.NotContains(t, run, "127.0.0.1")
}

// TestContainerCommand_NoRequirements verifies pip is skipped entirely when
// there is nothing to install.
func TestContainerCommand_NoRequirements(t *testing.T) {
	cmd := containerCommand(testLaunchSpec(), nil)
	require.Len(t, cmd, 3)
	assert.NotContains(t, cmd[2], "pip")
	assert.Contains(t, cmd[2], "app.run(host='0.0.0.0', port=5003, debug=True)")
}
