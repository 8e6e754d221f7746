package agent

import (
	"sync"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// stateGuard tracks the agent's state across possibly nested invocations.
// Self-recursion re-enters Process on the same agent, so the guard counts
// in-flight calls: the state flips to Processing on the first entry and back
// to Idle (or Error) when the last call leaves.
type stateGuard struct {
	mu       sync.Mutex
	state    models.AgentState
	inflight int
	failed   bool
}

func newStateGuard() *stateGuard {
	return &stateGuard{state: models.AgentStateIdle}
}

func (g *stateGuard) current() models.AgentState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// enter marks one invocation in flight and returns the matching release
// function. release takes whether the invocation ended cleanly.
func (g *stateGuard) enter() func(ok bool) {
	g.mu.Lock()
	g.inflight++
	if g.inflight == 1 {
		g.state = models.AgentStateProcessing
		g.failed = false
	}
	g.mu.Unlock()

	return func(ok bool) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if !ok {
			g.failed = true
		}
		g.inflight--
		if g.inflight == 0 {
			if g.failed {
				g.state = models.AgentStateError
			} else {
				g.state = models.AgentStateIdle
			}
		}
	}
}
