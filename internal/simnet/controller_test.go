package simnet

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kprusa/olsrd/internal/olsr"
)

func TestController_TwoNodesEstablishSymmetricNeighbors(t *testing.T) {
	topo, err := ParseTopology(strings.NewReader("0 UP 1 2\n0 UP 2 1\n"))
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	engines := map[olsr.NodeID]*olsr.Engine{
		1: olsr.NewEngine(olsr.Config{SelfID: 1, Clock: clock}),
		2: olsr.NewEngine(olsr.Config{SelfID: 2, Clock: clock}),
	}

	c := NewController(topo, engines, clock, olsr.HelloInterval)
	c.Run(3)

	hop1 := engines[1].GetNextHop(2)
	assert.Equal(t, olsr.NextHopRoute, hop1.Kind, "node 1 should have a direct route to node 2 after a few hello rounds")
	hop2 := engines[2].GetNextHop(1)
	assert.Equal(t, olsr.NextHopRoute, hop2.Kind, "node 2 should have a direct route to node 1 after a few hello rounds")
}

func TestController_NeverScriptedLinkKeepsNodesStrangers(t *testing.T) {
	topo, err := ParseTopology(strings.NewReader(""))
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	engines := map[olsr.NodeID]*olsr.Engine{
		1: olsr.NewEngine(olsr.Config{SelfID: 1, Clock: clock}),
		2: olsr.NewEngine(olsr.Config{SelfID: 2, Clock: clock}),
	}

	c := NewController(topo, engines, clock, time.Second)
	c.Run(5)

	hop := engines[1].GetNextHop(2)
	assert.NotEqual(t, olsr.NextHopRoute, hop.Kind)
}
