package fogsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkLatencyGrowsPastBandwidth(t *testing.T) {
	require.InDelta(t, 5.0, LinkLatency(10, 5.0, 10), 1e-9)
	require.InDelta(t, 5.0, LinkLatency(0, 5.0, 10), 1e-9)
	require.InDelta(t, 7.5, LinkLatency(15, 5.0, 10), 1e-9)
}

func TestLinkLoad(t *testing.T) {
	a, err := CreateNode(0, "a", FogKind, Location{Longitude: 0, Latitude: 0}, 1)
	require.NoError(t, err)
	b, err := CreateNode(1, "b", FogKind, Location{Longitude: 3, Latitude: 4}, 1)
	require.NoError(t, err)

	link, err := CreateLink(a, b, 10)
	require.NoError(t, err)
	require.InDelta(t, 5.0, link.Distance(), 1e-9)
	require.InDelta(t, 5.0, link.Latency(), 1e-9)

	link.AddLoad(15)
	require.InDelta(t, 7.5, link.Latency(), 1e-9)
	require.Greater(t, link.Latency(), link.Distance())

	link.RemoveLoad(20)
	require.Equal(t, 0.0, link.Load())
	require.Equal(t, 15.0, link.MaxLoad())
	require.Equal(t, b, link.Other(a))
	require.Equal(t, a, link.Other(b))

	_, err = CreateLink(a, a, 10)
	require.Error(t, err)
	_, err = CreateLink(a, b, 0)
	require.Error(t, err)
}

func TestLinkTableIsUnordered(t *testing.T) {
	a, _ := CreateNode(0, "a", FogKind, Location{}, 1)
	b, _ := CreateNode(1, "b", FogKind, Location{Longitude: 1}, 1)
	c, _ := CreateNode(2, "c", FogKind, Location{Longitude: 2}, 1)

	lt := CreateLinkTable()
	ab, _ := CreateLink(a, b, 10)
	require.NoError(t, lt.Add(ab))
	ba, _ := CreateLink(b, a, 10)
	require.Error(t, lt.Add(ba))

	found, present := lt.Between(b, a)
	require.True(t, present)
	require.Equal(t, ab, found)
	_, present = lt.Between(a, c)
	require.False(t, present)
	require.Len(t, lt.Incident(a), 1)
	require.Equal(t, 1, lt.Len())
}
