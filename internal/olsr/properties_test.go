package olsr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMprSetNeverIncludesNonSymmetricNeighbors verifies the MPR set never
// contains a WILL_NEVER neighbor or a non-symmetric one.
func TestMprSetNeverIncludesNonSymmetricNeighbors(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	_, _ = neighbors.Upsert(1, Symmetric, WillNever, now)
	_, _ = neighbors.Upsert(2, Asymmetric, WillHigh, now)
	twoHop := newTwoHopSet(MaxTwoHopNeighbors, nil)
	_ = twoHop.Add(100, 1, now)
	_ = twoHop.Add(100, 2, now)

	calculateMPRSet(neighbors, twoHop)

	for _, id := range neighbors.IDs() {
		n := neighbors.entries[id]
		if n.IsMPR {
			assert.NotEqual(t, WillNever, n.Willingness)
			assert.Equal(t, Symmetric, n.LinkStatus)
		}
	}
}

// TestTopologyAnsnTracksMaxEverReceived verifies the stored ansn for a
// (from, to) pair is always the maximum ever observed, even across a
// regression attempt.
func TestTopologyAnsnTracksMaxEverReceived(t *testing.T) {
	now := time.Unix(0, 0)
	db := newTopologyDB(MaxTopologyLinks, nil)
	require.NoError(t, db.Upsert(1, 2, 3, now.Add(time.Minute)))
	require.NoError(t, db.Upsert(1, 2, 7, now.Add(time.Minute)))
	_ = db.Upsert(1, 2, 4, now.Add(time.Minute)) // regression, must be rejected

	max, ok := db.MaxANSN(1)
	require.True(t, ok)
	assert.Equal(t, uint16(7), max)
}

// TestDuplicateTCIsIdempotent verifies processing the same
// (originator, seq) twice yields identical state and no second forward.
func TestDuplicateTCIsIdempotent(t *testing.T) {
	now := time.Unix(0, 0)
	dup := newDuplicateSet(MaxDuplicateEntries, nil)
	topo := newTopologyDB(MaxTopologyLinks, nil)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	_, _ = neighbors.Upsert(1, Symmetric, WillDefault, now)
	neighbors.entries[1].IsMPRSelector = true

	msg := &TCSnapshot{ANSN: 2, Selectors: []TCSelector{{ID: 9}}}
	first, err := processTC(0, msg, 1, 1, 11, 10, now, dup, topo, neighbors, nil)
	require.NoError(t, err)
	require.False(t, first.Duplicate)
	linksAfterFirst := topo.Len()

	second, err := processTC(0, msg, 1, 1, 11, 10, now, dup, topo, neighbors, nil)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.Forward, "a duplicate must never be forwarded")
	assert.Equal(t, linksAfterFirst, topo.Len())
}

// TestDirectNeighborIsOwnNextHop verifies a one-hop
// RoutingEntry's next hop is the destination itself.
func TestDirectNeighborIsOwnNextHop(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	_, _ = neighbors.Upsert(1, Symmetric, WillDefault, now)
	topo := newTopologyDB(MaxTopologyLinks, nil)

	table := newRoutingTable(MaxRoutingEntries, nil)
	updateRoutingTable(0, neighbors, topo, table, now)

	entry, ok := table.Find(1)
	require.True(t, ok)
	assert.Equal(t, 1, entry.HopCount)
	assert.Equal(t, NodeID(1), entry.NextHop)
}

// TestCleanupLeavesOnlyLiveEntries verifies that after cleanup,
// every remaining link has validity strictly after the cleanup time.
func TestCleanupLeavesOnlyLiveEntries(t *testing.T) {
	now := time.Unix(0, 0)
	db := newTopologyDB(MaxTopologyLinks, nil)
	require.NoError(t, db.Upsert(1, 2, 1, now.Add(-time.Second)))
	require.NoError(t, db.Upsert(1, 3, 1, now.Add(time.Minute)))

	db.CleanupExpired(now)

	for _, l := range db.GetAll(now.Add(-time.Hour)) {
		assert.True(t, l.Validity.After(now))
	}
	assert.Equal(t, 1, db.Len())
}

// TestRepeatedMprCalculationIsStable verifies two successive
// calculateMPRSet calls with unchanged inputs produce an identical set.
func TestRepeatedMprCalculationIsStable(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	_, _ = neighbors.Upsert(1, Symmetric, WillDefault, now)
	_, _ = neighbors.Upsert(2, Symmetric, WillHigh, now)
	twoHop := newTwoHopSet(MaxTwoHopNeighbors, nil)
	_ = twoHop.Add(100, 1, now)
	_ = twoHop.Add(100, 2, now)

	calculateMPRSet(neighbors, twoHop)
	first := map[NodeID]bool{1: neighbors.entries[1].IsMPR, 2: neighbors.entries[2].IsMPR}

	calculateMPRSet(neighbors, twoHop)
	second := map[NodeID]bool{1: neighbors.entries[1].IsMPR, 2: neighbors.entries[2].IsMPR}

	assert.Equal(t, first, second)
}

// TestAnsnRegressionLeavesEntryUnchanged verifies a regressed ansn is
// rejected without mutating the topology database's existing entry.
func TestAnsnRegressionLeavesEntryUnchanged(t *testing.T) {
	now := time.Unix(0, 0)
	db := newTopologyDB(MaxTopologyLinks, nil)
	require.NoError(t, db.Upsert(1, 2, 5, now.Add(time.Minute)))

	err := db.Upsert(1, 2, 4, now.Add(2*time.Minute))
	require.Error(t, err)

	max, _ := db.MaxANSN(1)
	assert.Equal(t, uint16(5), max)
	links := db.GetAll(now)
	require.Len(t, links, 1)
	assert.Equal(t, now.Add(time.Minute), links[0].Validity, "the rejected update must not touch validity either")
}

// TestRepeatedHelloIsIdempotent verifies processing the same
// HELLO twice yields the same neighbor/two-hop/tdma state (timestamps
// excepted).
func TestRepeatedHelloIsIdempotent(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	twoHop := newTwoHopSet(MaxTwoHopNeighbors, nil)
	tdma := newTdmaTable(MaxTdmaReservations, 0, nil)

	hello := &HelloSnapshot{
		Willingness:  WillDefault,
		ReservedSlot: 3,
		Neighbors:    []HelloNeighbor{{ID: 0, LinkCode: Symmetric}, {ID: 50, LinkCode: Symmetric}},
	}

	require.NoError(t, processHello(0, hello, 1, now, neighbors, twoHop, tdma, nil))
	require.NoError(t, processHello(0, hello, 1, now, neighbors, twoHop, tdma, nil))

	assert.Equal(t, 1, neighbors.Len())
	assert.Equal(t, 1, twoHop.Len())
	n, _ := neighbors.Find(1)
	assert.Equal(t, Symmetric, n.LinkStatus)
}

// TestEmptyHelloCreatesAsymmetricNeighbor verifies a HELLO that lists no
// neighbors still establishes an asymmetric neighbor entry for the sender.
func TestEmptyHelloCreatesAsymmetricNeighbor(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(MaxNeighbors, nil)
	twoHop := newTwoHopSet(MaxTwoHopNeighbors, nil)
	tdma := newTdmaTable(MaxTdmaReservations, 0, nil)

	hello := &HelloSnapshot{ReservedSlot: -1}
	require.NoError(t, processHello(0, hello, 1, now, neighbors, twoHop, tdma, nil))

	n, ok := neighbors.Find(1)
	require.True(t, ok)
	assert.Equal(t, Asymmetric, n.LinkStatus)
	assert.Equal(t, 0, twoHop.Len())
}

// TestFullNeighborTableRejectsWithoutCorruption verifies a neighbor table
// at capacity rejects a new entry without disturbing the existing ones.
func TestFullNeighborTableRejectsWithoutCorruption(t *testing.T) {
	now := time.Unix(0, 0)
	neighbors := newNeighborSet(2, nil)
	_, err := neighbors.Upsert(1, Symmetric, WillDefault, now)
	require.NoError(t, err)
	_, err = neighbors.Upsert(2, Symmetric, WillDefault, now)
	require.NoError(t, err)

	_, err = neighbors.Upsert(3, Symmetric, WillDefault, now)
	var capErr *CapacityFullError
	require.ErrorAs(t, err, &capErr)

	n1, ok := neighbors.Find(1)
	require.True(t, ok)
	assert.Equal(t, Symmetric, n1.LinkStatus)
	n2, ok := neighbors.Find(2)
	require.True(t, ok)
	assert.Equal(t, Symmetric, n2.LinkStatus)
	_, ok = neighbors.Find(3)
	assert.False(t, ok)
}
