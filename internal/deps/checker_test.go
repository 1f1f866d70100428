package deps

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// fakeInterpreter writes a shell script that stands in for python. Modules
// listed in missing fail to import; pip invocations are recorded to a log
// file so tests can assert exactly what would have been installed. When
// failPip is true, pip invocations exit non-zero.
func fakeInterpreter(t *testing.T, missing []string, failPip bool) (interp, pipLog string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter script requires a POSIX shell")
	}

	dir := t.TempDir()
	pipLog = filepath.Join(dir, "pip.log")

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString(`if [ "$1" = "-m" ] && [ "$2" = "pip" ]; then` + "\n")
	sb.WriteString(`  shift 3; echo "$@" >> ` + pipLog + "\n")
	if failPip {
		sb.WriteString("  echo 'ERROR: No matching distribution found' >&2\n  exit 1\n")
	} else {
		sb.WriteString("  exit 0\n")
	}
	sb.WriteString("fi\n")
	for _, m := range missing {
		sb.WriteString(`if [ "$2" = "import ` + m + `" ]; then exit 1; fi` + "\n")
	}
	sb.WriteString("exit 0\n")

	interp = filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(interp, []byte(sb.String()), 0o755))
	return interp, pipLog
}

// pipInvocations returns the recorded pip install argument lines, one per
// invocation. An absent log file means pip was never run.
func pipInvocations(t *testing.T, pipLog string) []string {
	t.Helper()
	data, err := os.ReadFile(pipLog)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func testRequirements() []model.Requirement {
	return []model.Requirement{
		{Package: "flask", Module: "flask"},
		{Package: "flask-cors", Module: "flask_cors"},
		{Package: "pandas", Module: "pandas"},
		{Package: "numpy", Module: "numpy"},
		{Package: "plotly", Module: "plotly"},
	}
}

// TestEnsure_AllPresent verifies that when every module is importable,
// pip is never invoked.
func TestEnsure_AllPresent(t *testing.T) {
	interp, pipLog := fakeInterpreter(t, nil, false)
	checker := NewChecker(interp)

	installed, err := checker.Ensure(t.Context(), testRequirements())
	require.NoError(t, err)
	assert.Nil(t, installed)
	assert.Empty(t, pipInvocations(t, pipLog), "pip must not run when nothing is missing")
}

// TestEnsure_OnlyPlotlyMissing verifies the installer is invoked once with
// exactly the missing package name.
func TestEnsure_OnlyPlotlyMissing(t *testing.T) {
	interp, pipLog := fakeInterpreter(t, []string{"plotly"}, false)
	checker := NewChecker(interp)

	installed, err := checker.Ensure(t.Context(), testRequirements())
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Equal(t, "plotly", installed[0].Package)

	invocations := pipInvocations(t, pipLog)
	require.Len(t, invocations, 1, "missing packages are installed in one batch")
	assert.Equal(t, "plotly", invocations[0])
}

// TestEnsure_BatchedInstall verifies multiple missing packages go to pip in
// a single invocation, in configured order, using package (not module) names.
func TestEnsure_BatchedInstall(t *testing.T) {
	interp, pipLog := fakeInterpreter(t, []string{"flask_cors", "plotly"}, false)
	checker := NewChecker(interp)

	installed, err := checker.Ensure(t.Context(), testRequirements())
	require.NoError(t, err)
	require.Len(t, installed, 2)

	invocations := pipInvocations(t, pipLog)
	require.Len(t, invocations, 1)
	assert.Equal(t, "flask-cors plotly", invocations[0])
}

// TestEnsure_InstallFailure verifies a non-zero pip exit is fatal with the
// dependency-install exit code and includes pip's error line.
func TestEnsure_InstallFailure(t *testing.T) {
	interp, _ := fakeInterpreter(t, []string{"plotly"}, true)
	checker := NewChecker(interp)

	_, err := checker.Ensure(t.Context(), testRequirements())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitDependencyInstallFailed, cliErr.Code)
	assert.Contains(t, cliErr.Message, "plotly")
	assert.Contains(t, cliErr.Message, "No matching distribution found")
}

// TestReport_OrderPreserved verifies Report returns one status per
// requirement in the configured order despite concurrent probing.
func TestReport_OrderPreserved(t *testing.T) {
	interp, _ := fakeInterpreter(t, []string{"flask", "numpy"}, false)
	checker := NewChecker(interp)

	reqs := testRequirements()
	statuses, err := checker.Report(t.Context(), reqs)
	require.NoError(t, err)
	require.Len(t, statuses, len(reqs))

	for i, s := range statuses {
		assert.Equal(t, reqs[i], s.Requirement)
	}
	assert.False(t, statuses[0].Present, "flask marked missing")
	assert.True(t, statuses[1].Present)
	assert.False(t, statuses[3].Present, "numpy marked missing")
	assert.True(t, statuses[4].Present)
}

// TestInstall_NothingToDo verifies Install on an empty set is a no-op.
func TestInstall_NothingToDo(t *testing.T) {
	checker := NewChecker("/nonexistent/python")
	assert.NoError(t, checker.Install(t.Context(), nil))
}
