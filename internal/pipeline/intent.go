package pipeline

// Intent identifies the operation a turn is asking for.
type Intent string

// Mutation intents.
const (
	IntentRegisterOwner     Intent = "register_owner"
	IntentRegisterUser      Intent = "register_user"
	IntentAddVehicle        Intent = "add_vehicle"
	IntentAddTrip           Intent = "add_trip"
	IntentAddExpense        Intent = "add_expense"
	IntentCreateLoad        Intent = "create_load"
	IntentAssignLoadToTrip  Intent = "assign_load_to_trip"
	IntentAddLocationUpdate Intent = "add_location_update"
	IntentNLUpdate          Intent = "nl_update"
)

// Query intents.
const (
	IntentTripDetails    Intent = "trip_details"
	IntentTripExpenses   Intent = "trip_expenses"
	IntentVehicleSummary Intent = "vehicle_summary"
	IntentOwnerSummary   Intent = "owner_summary"
	IntentLoadDetails    Intent = "load_details"
	IntentDriverDetails  Intent = "driver_details"
	IntentUserDetails    Intent = "user_details"
	IntentDriverExpenses Intent = "driver_expenses"
	IntentUserExpenses   Intent = "user_expenses"
)

// Conversational intents.
const (
	IntentChat     Intent = "chat"
	IntentGreeting Intent = "greeting"
)

var mutationIntents = map[Intent]bool{
	IntentRegisterOwner:     true,
	IntentRegisterUser:      true,
	IntentAddVehicle:        true,
	IntentAddTrip:           true,
	IntentAddExpense:        true,
	IntentCreateLoad:        true,
	IntentAssignLoadToTrip:  true,
	IntentAddLocationUpdate: true,
	IntentNLUpdate:          true,
}

var queryIntents = map[Intent]bool{
	IntentTripDetails:    true,
	IntentTripExpenses:   true,
	IntentVehicleSummary: true,
	IntentOwnerSummary:   true,
	IntentLoadDetails:    true,
	IntentDriverDetails:  true,
	IntentUserDetails:    true,
	IntentDriverExpenses: true,
	IntentUserExpenses:   true,
}

// intentAliases maps the planner's task_type vocabulary onto the
// canonical intents used internally.
var intentAliases = map[string]Intent{
	"query_trip":            IntentTripDetails,
	"query_trip_expenses":   IntentTripExpenses,
	"trip_expenses":         IntentTripExpenses,
	"query_vehicle":         IntentVehicleSummary,
	"query_owner":           IntentOwnerSummary,
	"query_load":            IntentLoadDetails,
	"query_driver":          IntentDriverDetails,
	"query_user_expenses":   IntentUserExpenses,
	"query_driver_expenses": IntentDriverExpenses,
}

// NormalizeIntent maps a planner task_type to a canonical intent.
// Unknown values pass through unchanged so the dispatcher can reject
// them with a targeted message.
func NormalizeIntent(taskType string) Intent {
	if canonical, ok := intentAliases[taskType]; ok {
		return canonical
	}
	return Intent(taskType)
}

// IsMutation reports whether the intent writes to the store.
func (i Intent) IsMutation() bool { return mutationIntents[i] }

// IsQuery reports whether the intent is a read-only lookup.
func (i Intent) IsQuery() bool { return queryIntents[i] }
