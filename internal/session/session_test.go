package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"fleetmind/internal/authz"
	"fleetmind/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore()

	st := pipeline.NewTurnState("trip 1 details", authz.RoleOwner)
	st.Messages = []pipeline.Message{
		{Role: "user", Content: "trip 1 details"},
		{Role: "assistant", Content: "Trip Details"},
	}
	st.Entities["id"] = int64(1)
	st.Focus["trip_id"] = 1
	store.Save("web-abc", st)

	loaded := pipeline.NewTurnState("what are the expenses", authz.RoleOwner)
	store.Load("web-abc", loaded)

	assert.Equal(t, st.Messages, loaded.Messages)
	id, _ := loaded.Entities.Int64("id")
	assert.Equal(t, int64(1), id)
	assert.Equal(t, int64(1), loaded.Focus["trip_id"])
	assert.Equal(t, 1, store.Len())
}

func TestLoadUnknownSenderLeavesStateAlone(t *testing.T) {
	store := NewStore()

	st := pipeline.NewTurnState("hello", authz.RoleOwner)
	st.Entities["id"] = int64(9)
	store.Load("nobody", st)

	id, _ := st.Entities.Int64("id")
	assert.Equal(t, int64(9), id)
	assert.Empty(t, st.Messages)
}

func TestSaveCopiesState(t *testing.T) {
	store := NewStore()

	st := pipeline.NewTurnState("x", authz.RoleOwner)
	st.Entities["pickup_address"] = "Mumbai"
	store.Save("s1", st)

	// Mutating the live state must not leak into the saved session.
	st.Entities["pickup_address"] = "Delhi"
	st.Messages = append(st.Messages, pipeline.Message{Role: "user", Content: "late"})

	loaded := pipeline.NewTurnState("y", authz.RoleOwner)
	store.Load("s1", loaded)
	assert.Equal(t, "Mumbai", loaded.Entities.Str("pickup_address"))
	assert.Empty(t, loaded.Messages)
}

func TestSessionsAreIsolatedPerSender(t *testing.T) {
	store := NewStore()

	a := pipeline.NewTurnState("a", authz.RoleOwner)
	a.Focus["trip_id"] = 1
	store.Save("sender-a", a)

	b := pipeline.NewTurnState("b", authz.RoleOwner)
	b.Focus["trip_id"] = 2
	store.Save("sender-b", b)

	got := pipeline.NewTurnState("", authz.RoleOwner)
	store.Load("sender-a", got)
	assert.Equal(t, int64(1), got.Focus["trip_id"])

	store.Load("sender-b", got)
	assert.Equal(t, int64(2), got.Focus["trip_id"])

	store.Reset("sender-a")
	assert.Equal(t, 1, store.Len())
}

func TestLockSerializesPerSender(t *testing.T) {
	store := NewStore()

	var order []int
	var wg sync.WaitGroup

	unlock := store.Lock("sender")
	wg.Add(1)
	go func() {
		defer wg.Done()
		u := store.Lock("sender")
		order = append(order, 2)
		u()
	}()

	order = append(order, 1)
	unlock()
	wg.Wait()

	assert.Equal(t, []int{1, 2}, order)

	// A different sender's lock is independent.
	u1 := store.Lock("one")
	u2 := store.Lock("two")
	u2()
	u1()
}
