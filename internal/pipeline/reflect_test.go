package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetmind/internal/authz"
)

func TestReflectTripDetailsLayout(t *testing.T) {
	p := &Pipeline{}
	st := NewTurnState("trip 1 details", authz.RoleOwner)
	st.Intent = IntentTripDetails
	st.LastResult = Result{
		"status":                "scheduled",
		"trip_id":               int64(1),
		"driver_id":             int64(2),
		"vehicle_id":            int64(3),
		"start_time":            nil,
		"end_time":              nil,
		"total_expense":         620.0,
		"expense_count":         2,
		"load_count":            0,
		"location_update_count": 1,
	}

	p.reflect(st)

	reply := st.LastReply()
	assert.Contains(t, reply, "Trip Details")
	assert.Contains(t, reply, "- Trip ID: 1")
	assert.Contains(t, reply, "- Start Time: (not set)")
	assert.Contains(t, reply, "- Total Expense: 620")
	assert.Contains(t, reply, "Next: ask 'trip <id> expenses' or 'trip <id> loads'")
	assert.Equal(t, ActionEnd, st.NextAction)
}

func TestReflectTripExpensesLayout(t *testing.T) {
	p := &Pipeline{}
	st := NewTurnState("trip 4 expenses", authz.RoleOwner)
	st.Intent = IntentTripExpenses
	st.LastResult = Result{
		"status":            "success",
		"trip_id":           int64(4),
		"total_expense":     880.0,
		"expense_count":     3,
		"expense_breakdown": map[string]float64{"fuel": 800, "food": 80},
	}

	p.reflect(st)

	reply := st.LastReply()
	assert.Contains(t, reply, "Trip 4 Expenses")
	assert.Contains(t, reply, "Total: 880 (count: 3)")
	assert.Contains(t, reply, "- food: 80")
	assert.Contains(t, reply, "- fuel: 800")
	// Breakdown keys come out sorted.
	assert.Less(t, strings.Index(reply, "food"), strings.Index(reply, "fuel"))
}

func TestReflectMissingLayout(t *testing.T) {
	p := &Pipeline{}
	st := NewTurnState("create load", authz.RoleOwner)
	st.Intent = IntentCreateLoad
	st.LastResult = Result{
		"status":             "incomplete",
		"missing_fields":     []string{"destination_address"},
		"questions":          []string{"Destination address?"},
		"optional_fields":    []string{"weight_kg"},
		"optional_questions": []string{"Weight (kg)? (optional)"},
	}

	p.reflect(st)

	reply := st.LastReply()
	assert.Contains(t, reply, "Missing information")
	assert.Contains(t, reply, "Required fields: destination_address")
	assert.Contains(t, reply, "- Destination address?")
	assert.Contains(t, reply, "Optional fields (nice to have): weight_kg")
}

func TestReflectGenericSkipsVerifierStatusOnly(t *testing.T) {
	p := &Pipeline{}
	st := NewTurnState("vehicle 1", authz.RoleOwner)
	st.Intent = IntentVehicleSummary
	st.LastResult = Result{
		"status":        "maintenance",
		"vehicle_id":    int64(1),
		"license_plate": "MH01AB1234",
	}

	p.reflect(st)

	reply := st.LastReply()
	// Entity statuses render; verifier markers would not.
	assert.Contains(t, reply, "status: maintenance")
	assert.Contains(t, reply, "license_plate: MH01AB1234")
	assert.Contains(t, reply, "vehicle_id: 1")
}

func TestReflectGenericFallsBackToSummary(t *testing.T) {
	p := &Pipeline{}
	st := NewTurnState("trip 9", authz.RoleOwner)
	st.Summary = "trip with ID 9 not found"
	st.LastResult = Result{}

	p.reflect(st)

	assert.Equal(t, "trip with ID 9 not found", st.LastReply())
}

func TestReflectJSONMode(t *testing.T) {
	p := &Pipeline{structuredJSON: true}
	st := NewTurnState("vehicle 1", authz.RoleOwner)
	st.LastResult = Result{"status": "success", "vehicle_id": int64(1)}

	p.reflect(st)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(st.LastReply()), &decoded))
	assert.Equal(t, "success", decoded["status"])
}

func TestReflectAutoLoopOnIncomplete(t *testing.T) {
	p := &Pipeline{}
	st := NewTurnState("create load", authz.RoleOwner)
	st.AutoLoop = true
	st.MaxIterations = 2
	st.Intent = IntentCreateLoad
	st.LastResult = Result{"status": "incomplete", "questions": []string{"Destination address?"}}

	p.reflect(st)
	assert.Equal(t, ActionLoop, st.NextAction)
	assert.Equal(t, 1, st.Iteration)
	assert.Empty(t, st.UserInput)

	p.reflect(st)
	assert.Equal(t, ActionLoop, st.NextAction)
	assert.Equal(t, 2, st.Iteration)

	// Budget exhausted: the turn ends even though the result is incomplete.
	p.reflect(st)
	assert.Equal(t, ActionEnd, st.NextAction)
	assert.Equal(t, 2, st.Iteration)
}
