package cli

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-oversight/dashlaunch/internal/port"
)

// TestPortTable verifies the availability rows: probe order preserved, the
// first port marked as default, occupied ports reported in use.
func TestPortTable(t *testing.T) {
	busyListener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busyListener.Close() })
	busy := busyListener.Addr().(*net.TCPAddr).Port

	freeListener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	free := freeListener.Addr().(*net.TCPAddr).Port
	require.NoError(t, freeListener.Close())

	statuses := portTable(port.NewScanner(), []int{busy, free})
	require.Len(t, statuses, 2)

	assert.Equal(t, busy, statuses[0].Port)
	assert.True(t, statuses[0].Default)
	assert.False(t, statuses[0].Available)

	assert.Equal(t, free, statuses[1].Port)
	assert.False(t, statuses[1].Default)
	assert.True(t, statuses[1].Available)
}
