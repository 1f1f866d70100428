package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// busyPort opens a real TCP listener on an OS-assigned port and keeps it
// open for the duration of the test, returning the occupied port number.
// Using ":0" avoids flakiness from hardcoded ports on shared CI machines.
func busyPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "failed to start test listener")
	t.Cleanup(func() { _ = listener.Close() })

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return tcpAddr.Port
}

// freePort asks the OS for an unused port and releases it immediately.
// The port can in principle be taken before the test uses it, but the
// ephemeral allocator does not hand the same port out again right away.
func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	require.NoError(t, listener.Close())
	return tcpAddr.Port
}

// TestIsAvailable_FreePort verifies a port nobody is listening on is
// reported available.
func TestIsAvailable_FreePort(t *testing.T) {
	scanner := NewScanner()
	assert.True(t, scanner.IsAvailable(freePort(t)))
}

// TestIsAvailable_BusyPort verifies a port with a live listener is
// reported unavailable.
func TestIsAvailable_BusyPort(t *testing.T) {
	scanner := NewScanner()
	assert.False(t, scanner.IsAvailable(busyPort(t)))
}

// TestIsAvailable_InvalidPort verifies probe errors count as unavailable
// (fail-closed) rather than available.
func TestIsAvailable_InvalidPort(t *testing.T) {
	scanner := NewScanner()
	assert.False(t, scanner.IsAvailable(-1))
	assert.False(t, scanner.IsAvailable(65536))
}

// TestUsedPorts verifies only the occupied subset is returned, in probe order.
func TestUsedPorts(t *testing.T) {
	scanner := NewScanner()

	busyA := busyPort(t)
	busyB := busyPort(t)
	free := freePort(t)

	used := scanner.UsedPorts([]int{busyA, free, busyB})
	assert.Equal(t, []int{busyA, busyB}, used)
}
