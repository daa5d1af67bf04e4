package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetmind/internal/authz"
)

func TestResolveVehicleByPlate(t *testing.T) {
	p, s := newTestPipeline(t, &stubLLM{}, Options{})
	seedFleet(t, s)

	st := NewTurnState("", authz.RoleOwner)
	st.Intent = IntentVehicleSummary
	st.Entities["license_plate"] = "mh02cd5678"
	p.resolve(st)

	assert.Equal(t, ActionQuery, st.NextAction)
	id, _ := st.Entities.Int64("id")
	assert.Equal(t, int64(2), id)
}

func TestResolveDriverByEmailForTrip(t *testing.T) {
	p, s := newTestPipeline(t, &stubLLM{}, Options{})
	seedFleet(t, s)

	st := NewTurnState("", authz.RoleOwner)
	st.Intent = IntentAddTrip
	st.Entities["email"] = "ravi@sharma.example"
	st.Entities["license_plate"] = "MH01AB1234"
	p.resolve(st)

	assert.Equal(t, ActionMutation, st.NextAction)
	driverID, _ := st.Entities.Int64("driver_id")
	vehicleID, _ := st.Entities.Int64("vehicle_id")
	assert.Equal(t, int64(1), driverID)
	assert.Equal(t, int64(1), vehicleID)
}

func TestResolveOwnerByCompanyName(t *testing.T) {
	p, s := newTestPipeline(t, &stubLLM{}, Options{})
	seedFleet(t, s)

	st := NewTurnState("", authz.RoleOwner)
	st.Intent = IntentOwnerSummary
	st.Entities["company_name"] = "sharma logistics"
	p.resolve(st)

	assert.Equal(t, ActionQuery, st.NextAction)
	id, _ := st.Entities.Int64("id")
	assert.Equal(t, int64(1), id)
}

func TestResolveCustomerForLoad(t *testing.T) {
	p, s := newTestPipeline(t, &stubLLM{}, Options{})
	seedFleet(t, s)

	st := NewTurnState("", authz.RoleOwner)
	st.Intent = IntentCreateLoad
	st.Entities["customer_name"] = "Anita Shah"
	p.resolve(st)

	assert.Equal(t, ActionMutation, st.NextAction)
	customerID, _ := st.Entities.Int64("customer_id")
	assert.Equal(t, int64(2), customerID)
}

func TestResolveExplicitIDWinsOverHints(t *testing.T) {
	p, s := newTestPipeline(t, &stubLLM{}, Options{})
	seedFleet(t, s)

	st := NewTurnState("", authz.RoleOwner)
	st.Intent = IntentAddExpense
	st.Entities["driver_id"] = int64(1)
	st.Entities["email"] = "anita@example.com" // hint pointing elsewhere
	p.resolve(st)

	driverID, _ := st.Entities.Int64("driver_id")
	assert.Equal(t, int64(1), driverID)
}

func TestResolveUnresolvedQueryAsksQuestion(t *testing.T) {
	p, s := newTestPipeline(t, &stubLLM{}, Options{})
	seedFleet(t, s)

	st := NewTurnState("", authz.RoleOwner)
	st.Intent = IntentDriverDetails
	p.resolve(st)

	assert.Equal(t, ActionVerify, st.NextAction)
	assert.Equal(t, "incomplete", st.LastResult.Status())
	assert.Equal(t, "Missing fields: driver_id", st.LastResult.Message(""))

	st = NewTurnState("", authz.RoleOwner)
	st.Intent = IntentVehicleSummary
	st.Entities["license_plate"] = "ZZ99XX0000"
	p.resolve(st)

	assert.Equal(t, ActionVerify, st.NextAction)
	assert.Equal(t, "Couldn't resolve target ID for query.", st.LastResult.Message(""))
}

func TestResolveMutationMissingForeignKeys(t *testing.T) {
	p, s := newTestPipeline(t, &stubLLM{}, Options{})
	seedFleet(t, s)

	st := NewTurnState("", authz.RoleOwner)
	st.Intent = IntentAddTrip
	st.Entities["driver_name"] = "Ghost Driver"
	p.resolve(st)

	assert.Equal(t, ActionVerify, st.NextAction)
	assert.Equal(t, "incomplete", st.LastResult.Status())
	assert.Equal(t, "Missing fields: driver_id, vehicle_id", st.LastResult.Message(""))
}

func TestResolveEndToEndByName(t *testing.T) {
	// The planner emits a driver name; the resolver maps it to an id and
	// the query executes in the same turn.
	client := &stubLLM{replies: []string{
		`{"task_type":"driver_details","entities":{"driver_name":"Ravi Kumar"}}`,
	}}
	p, s := newTestPipeline(t, client, Options{})
	seedFleet(t, s)

	st := NewTurnState("show me details for driver Ravi Kumar", authz.RoleOwner)
	reply := p.ProcessTurn(context.Background(), st)

	assert.Contains(t, reply, "full_name: Ravi Kumar")
	assert.Contains(t, reply, "trip_count: 2")

	_, err := s.GetDriverDetails(1)
	require.NoError(t, err)
}
