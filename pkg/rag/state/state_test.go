package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPathWithChart(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, Received, m.Current())

	for _, next := range []State{Retrieving, Assembling, Synthesizing, ChartPlanning, Completed} {
		require.NoError(t, m.Transition(next))
		assert.Equal(t, next, m.Current())
	}
	assert.True(t, m.Terminal())
}

func TestMachine_ChartPlanningIsOptional(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Transition(Retrieving))
	require.NoError(t, m.Transition(Assembling))
	require.NoError(t, m.Transition(Synthesizing))
	require.NoError(t, m.Transition(Completed))
	assert.True(t, m.Terminal())
}

func TestMachine_RejectsSkippedStates(t *testing.T) {
	m := NewMachine()
	assert.Error(t, m.Transition(Synthesizing))
	assert.Error(t, m.Transition(Completed))
	assert.Equal(t, Received, m.Current())
}

func TestMachine_FailFromAnyState(t *testing.T) {
	for _, steps := range [][]State{
		{},
		{Retrieving},
		{Retrieving, Assembling},
		{Retrieving, Assembling, Synthesizing},
	} {
		m := NewMachine()
		for _, s := range steps {
			require.NoError(t, m.Transition(s))
		}
		require.NoError(t, m.Fail())
		assert.Equal(t, Failed, m.Current())
		assert.True(t, m.Terminal())
	}
}

func TestMachine_TerminalStatesFrozen(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Fail())
	assert.Error(t, m.Transition(Retrieving))
	assert.Error(t, m.Fail())
}

func TestMachine_NoReentry(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Transition(Retrieving))
	assert.Error(t, m.Transition(Retrieving))
}
