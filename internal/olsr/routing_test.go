package olsr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph_UnionsNeighborsAndTopology(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	_, _ = neighbors.Upsert(1, Symmetric, WillDefault, now)
	_, _ = neighbors.Upsert(2, Asymmetric, WillDefault, now) // excluded: not symmetric
	topo := newTopologyDB(MaxTopologyLinks, nil)
	require.NoError(t, topo.Upsert(1, 3, 1, now.Add(time.Minute)))

	graph := buildGraph(0, neighbors, topo, now)

	assert.Contains(t, graph[0], NodeID(1))
	assert.NotContains(t, graph[0], NodeID(2))
	assert.Contains(t, graph[1], NodeID(3))
}

func TestDijkstra_ShortestPathAndNextHop(t *testing.T) {
	now := time.Unix(0, 0)
	graph := map[NodeID]map[NodeID]int{
		0: {1: 1, 2: 1},
		1: {3: 1},
		2: {3: 1},
		3: {},
	}

	entries := dijkstra(0, graph, now)

	e3 := entries[3]
	assert.Equal(t, 2, e3.Metric)
	assert.Equal(t, 2, e3.HopCount)
	assert.Contains(t, []NodeID{1, 2}, e3.NextHop)

	e1 := entries[1]
	assert.Equal(t, NodeID(1), e1.NextHop, "a direct neighbor is its own next hop")
}

func TestDijkstra_UnreachableNodesOmitted(t *testing.T) {
	now := time.Unix(0, 0)
	graph := map[NodeID]map[NodeID]int{
		0: {1: 1},
		// 2 exists nowhere in any edge from the reachable component
	}
	graph[5] = map[NodeID]int{2: 1}

	entries := dijkstra(0, graph, now)
	_, ok := entries[2]
	assert.False(t, ok)
	_, ok = entries[1]
	assert.True(t, ok)
}

func TestUpdateRoutingTable_TrimsToCapacityByMetric(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	_, _ = neighbors.Upsert(1, Symmetric, WillDefault, now)
	_, _ = neighbors.Upsert(2, Symmetric, WillDefault, now)
	topo := newTopologyDB(MaxTopologyLinks, nil)
	require.NoError(t, topo.Upsert(1, 3, 1, now.Add(time.Minute)))

	table := newRoutingTable(1, nil)
	updateRoutingTable(0, neighbors, topo, table, now)

	assert.Equal(t, 1, table.Len(), "table must respect its configured capacity")
	all := table.All()
	require.Len(t, all, 1)
	assert.LessOrEqual(t, all[0].Metric, 1)
}
