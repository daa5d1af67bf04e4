package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleetmind/internal/authz"
)

func newRouterState(input string) *TurnState {
	return NewTurnState(input, authz.RoleOwner)
}

func TestRouteUserDetailsFastPath(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("show me user 7 details")
	p.route(st)

	assert.Equal(t, IntentUserDetails, st.Intent)
	assert.Equal(t, ActionQuery, st.NextAction)
	id, _ := st.Entities.Int64("id")
	assert.Equal(t, int64(7), id)
}

func TestRouteRegisterUserFastPath(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("register driver Ravi Kumar email ravi@sharma.example phone 9876543210 owner 1")
	p.route(st)

	assert.Equal(t, IntentRegisterUser, st.Intent)
	assert.Equal(t, ActionMutation, st.NextAction)
	assert.Equal(t, "driver", st.Entities.Str("role"))
	assert.Equal(t, "Ravi Kumar", st.Entities.Str("full_name"))
	assert.Equal(t, "ravi@sharma.example", st.Entities.Str("email"))
	assert.Equal(t, "9876543210", st.Entities.Str("phone_number"))
	ownerID, _ := st.Entities.Int64("owner_id")
	assert.Equal(t, int64(1), ownerID)
}

func TestRouteRegisterUserExplicitRole(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("register user Anita Shah role customer email anita@example.com")
	p.route(st)

	assert.Equal(t, IntentRegisterUser, st.Intent)
	assert.Equal(t, "customer", st.Entities.Str("role"))
	assert.Equal(t, "Anita Shah", st.Entities.Str("full_name"))
}

func TestRouteAddTripFastPath(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("add trip driver 2 vehicle 3")
	p.route(st)

	assert.Equal(t, IntentAddTrip, st.Intent)
	assert.Equal(t, ActionMutation, st.NextAction)
	d, _ := st.Entities.Int64("driver_id")
	v, _ := st.Entities.Int64("vehicle_id")
	assert.Equal(t, int64(2), d)
	assert.Equal(t, int64(3), v)
}

func TestRouteAddExpenseFastPath(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("add expense trip 4 fuel 500 driver 2")
	p.route(st)

	assert.Equal(t, IntentAddExpense, st.Intent)
	assert.Equal(t, ActionMutation, st.NextAction)
	assert.Equal(t, "fuel", st.Entities.Str("expense_type"))
	amount, _ := st.Entities.Float("amount")
	assert.Equal(t, 500.0, amount)
	tripID, _ := st.Entities.Int64("trip_id")
	driverID, _ := st.Entities.Int64("driver_id")
	assert.Equal(t, int64(4), tripID)
	assert.Equal(t, int64(2), driverID)
}

func TestRouteAddLocationFastPath(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("add location for trip 5 lat 19.076 lng 72.8777 address Andheri East")
	p.route(st)

	assert.Equal(t, IntentAddLocationUpdate, st.Intent)
	assert.Equal(t, ActionMutation, st.NextAction)
	lat, _ := st.Entities.Float("latitude")
	lng, _ := st.Entities.Float("longitude")
	assert.Equal(t, 19.076, lat)
	assert.Equal(t, 72.8777, lng)
	assert.Equal(t, "Andheri East", st.Entities.Str("address"))
}

func TestRouteAssignHintsBothOrders(t *testing.T) {
	p := &Pipeline{}

	st := newRouterState("assign load 1 to trip 2")
	p.route(st)
	loadID, _ := st.Entities.Int64("load_id")
	tripID, _ := st.Entities.Int64("trip_id")
	assert.Equal(t, int64(1), loadID)
	assert.Equal(t, int64(2), tripID)
	assert.Equal(t, ActionPlanner, st.NextAction)

	st = newRouterState("attach trip 2 to load 1")
	p.route(st)
	loadID, _ = st.Entities.Int64("load_id")
	tripID, _ = st.Entities.Int64("trip_id")
	assert.Equal(t, int64(1), loadID)
	assert.Equal(t, int64(2), tripID)
}

func TestRouteQueryIDHint(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("what is the status of trip 12")
	p.route(st)

	// The id is lifted as a hint but the planner still owns the intent.
	assert.Equal(t, ActionPlanner, st.NextAction)
	id, _ := st.Entities.Int64("id")
	assert.Equal(t, int64(12), id)
}

func TestRouteGreetingShortCircuit(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("hello there")
	st.Entities["id"] = int64(5)
	p.route(st)

	assert.Equal(t, IntentGreeting, st.Intent)
	assert.Equal(t, ActionEnd, st.NextAction)
	assert.Empty(t, st.Entities)
	assert.Equal(t, greetingReply, st.LastReply())
}

func TestRouteNLUpdateHintLiftsID(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("change driver 3 phone to 9000000000")
	p.route(st)

	assert.Equal(t, ActionPlanner, st.NextAction)
	id, _ := st.Entities.Int64("id")
	assert.Equal(t, int64(3), id)
}

func TestRouteDefaultsToPlanner(t *testing.T) {
	p := &Pipeline{}
	st := newRouterState("what can you do for my fleet")
	p.route(st)

	assert.Equal(t, IntentChat, st.Intent)
	assert.Equal(t, ActionPlanner, st.NextAction)
}
