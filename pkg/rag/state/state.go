package state

import "fmt"

// State is one phase of a query's lifecycle.
type State string

const (
	Received      State = "received"
	Retrieving    State = "retrieving"
	Assembling    State = "assembling"
	Synthesizing  State = "synthesizing"
	ChartPlanning State = "chart_planning"
	Completed     State = "completed"
	Failed        State = "failed"
)

// transitions lists the forward edges. Failed is reachable from any
// non-terminal state and handled separately.
var transitions = map[State][]State{
	Received:      {Retrieving},
	Retrieving:    {Assembling},
	Assembling:    {Synthesizing},
	Synthesizing:  {ChartPlanning, Completed},
	ChartPlanning: {Completed},
}

// Machine tracks a single query's lifecycle. States are never re-entered
// within one query; Completed and Failed are terminal.
type Machine struct {
	current State
	visited map[State]struct{}
}

func NewMachine() *Machine {
	return &Machine{
		current: Received,
		visited: map[State]struct{}{Received: {}},
	}
}

func (m *Machine) Current() State { return m.current }

func (m *Machine) Terminal() bool {
	return m.current == Completed || m.current == Failed
}

// Transition advances to the next state, rejecting invalid edges and
// re-entry.
func (m *Machine) Transition(to State) error {
	if m.Terminal() {
		return fmt.Errorf("query already %s", m.current)
	}
	if _, seen := m.visited[to]; seen {
		return fmt.Errorf("state %s already visited", to)
	}
	for _, next := range transitions[m.current] {
		if next == to {
			m.current = to
			m.visited[to] = struct{}{}
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s", m.current, to)
}

// Fail moves to Failed from any non-terminal state.
func (m *Machine) Fail() error {
	if m.Terminal() {
		return fmt.Errorf("query already %s", m.current)
	}
	m.current = Failed
	m.visited[Failed] = struct{}{}
	return nil
}
