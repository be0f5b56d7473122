package matchmaking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionTable_PairIsBijective(t *testing.T) {
	req := require.New(t)
	table := NewSessionTable()

	a, b := poolClient("a"), poolClient("b")
	now := time.Now()
	table.Pair(a, b, "room-1", now)

	sessA, ok := table.Lookup("a")
	req.True(ok)
	sessB, ok := table.Lookup("b")
	req.True(ok)

	req.Equal("b", sessA.Partner.ID)
	req.Equal("a", sessB.Partner.ID)
	req.Equal(sessA.RoomID, sessB.RoomID)
	req.Equal(now, sessA.StartedAt)
	req.Equal(1, table.Pairs())
}

func TestSessionTable_TeardownRemovesBothSides(t *testing.T) {
	req := require.New(t)
	table := NewSessionTable()

	a, b := poolClient("a"), poolClient("b")
	table.Pair(a, b, "room-1", time.Now())

	sess, ok := table.Teardown("a")
	req.True(ok)
	req.Equal("b", sess.Partner.ID)

	// Neither side may survive a teardown.
	_, ok = table.Lookup("a")
	req.False(ok)
	_, ok = table.Lookup("b")
	req.False(ok)
	req.Equal(0, table.Pairs())

	// A second teardown finds nothing.
	_, ok = table.Teardown("b")
	req.False(ok)
}

func TestSessionTable_UnrelatedPairsUntouched(t *testing.T) {
	req := require.New(t)
	table := NewSessionTable()

	table.Pair(poolClient("a"), poolClient("b"), "room-1", time.Now())
	table.Pair(poolClient("c"), poolClient("d"), "room-2", time.Now())

	_, ok := table.Teardown("a")
	req.True(ok)

	sessC, ok := table.Lookup("c")
	req.True(ok)
	req.Equal("d", sessC.Partner.ID)
	req.Equal(1, table.Pairs())
}

func TestSessionTable_LookupUnpaired(t *testing.T) {
	req := require.New(t)
	table := NewSessionTable()

	_, ok := table.Lookup("nobody")
	req.False(ok)
	_, ok = table.Teardown("nobody")
	req.False(ok)
}
