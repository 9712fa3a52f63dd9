package fetch

import "sync"

// PathNavigator records a forced navigation instead of performing it. The
// web console creates one per request and turns the recorded target into a
// redirect; the CLI uses one per command.
type PathNavigator struct {
	mu       sync.Mutex
	location string
	target   string
	calls    int
}

func NewPathNavigator(location string) *PathNavigator {
	return &PathNavigator{location: location}
}

func (n *PathNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// Navigate records path as the target. Navigating to the current target
// again is a no-op.
func (n *PathNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.target == path {
		return
	}
	n.target = path
	n.calls++
}

// Target returns the recorded destination, if any.
func (n *PathNavigator) Target() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target, len(n.target) > 0
}

// Calls is the number of distinct navigations recorded.
func (n *PathNavigator) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}
