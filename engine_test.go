package fogsim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSameInstantRunsInSubmissionOrder(t *testing.T) {
	eng := CreateEngine()
	order := make([]int, 0)

	eng.Schedule(1.0, func(eng *Engine) {
		order = append(order, 1)
		eng.Schedule(0.0, func(eng *Engine) { order = append(order, 4) })
	})
	eng.Schedule(1.0, func(eng *Engine) { order = append(order, 2) })
	eng.Schedule(1.0, func(eng *Engine) { order = append(order, 3) })
	eng.Schedule(0.5, func(eng *Engine) { order = append(order, 0) })

	require.NoError(t, eng.Run(10.0))
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
	require.Equal(t, 5, eng.Fired())
}

func TestNowFollowsVirtualTime(t *testing.T) {
	eng := CreateEngine()
	seen := 0.0
	eng.Schedule(2.5, func(eng *Engine) { seen = eng.Now() })
	require.NoError(t, eng.Run(10.0))
	require.InDelta(t, 2.5, seen, 1e-9)
}

func TestStopDiscardsPending(t *testing.T) {
	eng := CreateEngine()
	late := false
	eng.Schedule(1.0, func(eng *Engine) {
		eng.Stop()
		eng.Schedule(0.0, func(eng *Engine) { late = true })
	})
	eng.Schedule(2.0, func(eng *Engine) { late = true })

	require.NoError(t, eng.Run(10.0))
	require.True(t, eng.Stopped())
	require.False(t, late)
}

func TestFailKeepsFirstError(t *testing.T) {
	eng := CreateEngine()
	first := errors.New("first")
	eng.Schedule(1.0, func(eng *Engine) {
		eng.Fail(first)
		eng.Fail(errors.New("second"))
	})

	err := eng.Run(10.0)
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, eng.Err(), first)
	require.True(t, eng.Stopped())
}

func TestStopFreezesClock(t *testing.T) {
	eng := CreateEngine()
	eng.Schedule(1.0, func(eng *Engine) { eng.Stop() })
	eng.Schedule(2.0, func(eng *Engine) {})

	require.NoError(t, eng.Run(10.0))
	require.InDelta(t, 1.0, eng.Now(), 1e-9)
	require.InDelta(t, 1.0, eng.LastTime(), 1e-9)
}

func TestStopOnLastEvent(t *testing.T) {
	eng := CreateEngine()
	eng.Schedule(1.5, func(eng *Engine) { eng.Stop() })

	require.NoError(t, eng.Run(10.0))
	require.True(t, eng.Stopped())
	require.InDelta(t, 1.5, eng.LastTime(), 1e-9)
}

func TestLastTimeMarksEndOfRun(t *testing.T) {
	eng := CreateEngine()
	eng.Schedule(3.0, func(eng *Engine) {})

	require.NoError(t, eng.Run(10.0))
	require.InDelta(t, 3.0, eng.LastTime(), 1e-9)
	require.InDelta(t, 10.0, eng.Now(), 1e-9)
}

func TestRunClampsHugeLimit(t *testing.T) {
	eng := CreateEngine()
	ran := false
	eng.Schedule(5.0, func(eng *Engine) { ran = true })

	require.NoError(t, eng.Run(1e12))
	require.True(t, ran)
	require.InDelta(t, 5.0, eng.LastTime(), 1e-9)
	require.Greater(t, MaxRunSeconds(), 1e8)
}
