package fogsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedgerFirstPostWins(t *testing.T) {
	lg := CreateLedger("n0")
	tid := TaskID{Device: 1, Seq: 4}

	require.True(t, lg.Post(tid, Real, 2.0))
	require.False(t, lg.Post(tid, Real, 9.0))
	require.True(t, lg.Post(tid, Dummy, 3.0))
	require.False(t, lg.Post(tid, Untracked, 1.0))

	entry, present := lg.Peek(tid)
	require.True(t, present)
	require.Equal(t, LedgerEntry{Real: 2.0, Dummy: 3.0, HasReal: true, HasDummy: true}, entry)
	require.Equal(t, 1, lg.Outstanding())
}

func TestLedgerTakeIsPerRole(t *testing.T) {
	lg := CreateLedger("n0")
	tid := TaskID{Device: 1, Seq: 4}
	lg.Post(tid, Real, 2.0)
	lg.Post(tid, Dummy, 3.0)

	offset, present := lg.Take(tid, Dummy)
	require.True(t, present)
	require.Equal(t, 3.0, offset)
	_, present = lg.Take(tid, Dummy)
	require.False(t, present)
	require.Equal(t, 1, lg.Outstanding())

	offset, present = lg.Take(tid, Real)
	require.True(t, present)
	require.Equal(t, 2.0, offset)
	require.Equal(t, 0, lg.Outstanding())

	// a slot can be posted again once taken
	require.True(t, lg.Post(tid, Real, 5.0))

	_, present = lg.Take(TaskID{Device: 2, Seq: 1}, Real)
	require.False(t, present)
}

func TestLedgerSummary(t *testing.T) {
	lg := CreateLedger("n0")
	lg.Post(TaskID{Device: 0, Seq: 1}, Real, 1.0)
	lg.Post(TaskID{Device: 0, Seq: 2}, Real, 3.0)
	lg.Post(TaskID{Device: 0, Seq: 2}, Dummy, 4.0)
	lg.Take(TaskID{Device: 0, Seq: 1}, Real)

	ls := lg.Summarize()
	require.Equal(t, 3, ls.Posted)
	require.Equal(t, 1, ls.Outstanding)
	require.InDelta(t, 2.0, ls.RealMean, 1e-9)
	require.InDelta(t, 4.0, ls.DummyMean, 1e-9)
	require.Equal(t, "0.2", TaskID{Device: 0, Seq: 2}.String())
}
