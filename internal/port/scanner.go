package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific TCP ports are available on the host.
//
// It asks the operating system directly via net.Listen rather than parsing
// /proc/net/* or shelling out to lsof/netstat, which may require elevated
// permissions and vary across platforms.
//
// The struct is currently stateless, but is defined as a struct (rather
// than bare functions) so future options (bind address, probe timeout) can
// be added without breaking the API, and so the Scanner is injectable as a
// dependency of the Selector.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsAvailable checks whether a single TCP port is free on the host.
//
// It attempts net.Listen("tcp", ":port"); if the bind succeeds the port is
// available and the listener is closed immediately. Binding uses all
// interfaces (":port" rather than "127.0.0.1:port") so a server published
// on 0.0.0.0 is not reported as free.
//
// Any listen error — a port in use, an invalid port, a permission problem —
// counts as unavailable. Failing closed here means a probe error can cost
// a usable port, but never selects a port the dashboard cannot bind.
func (s *Scanner) IsAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	// The listener was only needed to test availability.
	defer func() { _ = listener.Close() }()
	return true
}

// UsedPorts returns the subset of the given ports that are currently in
// use, in the order given. The ports command uses this to display which of
// the default and fallback ports are occupied.
func (s *Scanner) UsedPorts(ports []int) []int {
	var used []int
	for _, p := range ports {
		if !s.IsAvailable(p) {
			used = append(used, p)
		}
	}
	return used
}
