package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"fleetmind/internal/logging"
)

// The router is a lightweight pre-processor: it lifts obvious ids into
// the entity map as hints, short-circuits a handful of unambiguous
// commands, and defers everything else to the planner.

var (
	reUserDetails = regexp.MustCompile(`(?i)\buser\s*(?:id\s*)?(\d+)\b.*\b(details?|profile)\b`)

	reRegisterUser = regexp.MustCompile(`(?i)\bregister\s+(user|driver|customer)\b`)
	reRole         = regexp.MustCompile(`(?i)\brole\s+(customer|driver|owner)\b`)
	reOwnerID      = regexp.MustCompile(`(?i)\bowner\s*(?:id\s*)?(\d+)\b`)
	reEmail        = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[A-Za-z]{2,})`)
	rePhoneLabeled = regexp.MustCompile(`(?i)\b(?:phone|mobile|contact)\b\D*(\+?\d{10,15})`)
	rePhoneBare    = regexp.MustCompile(`(\+?\d{10,15})`)
	reFullName     = regexp.MustCompile(`(?i)\bfull\s+name\b\s+(.+)$`)
	reRegisterName = regexp.MustCompile(`(?i)\bregister\s+(?:user|driver|customer)\b\s+(.+)$`)
	reNameMarker   = regexp.MustCompile(`(?i)\b(role|email|phone|mobile|contact|owner)\b`)

	reNLUpdateHint = regexp.MustCompile(`(?i)\b(change|set|update)\b.*\b(driver|user|vehicle|trip|load)\s*(?:id\s*)?(\d+)\b`)

	reAssignLoad = regexp.MustCompile(`(?i)\b(assign|attach)\b\s*load\s*(\d+)\s*(?:to|with)\s*trip\s*(\d+)`)
	reAssignTrip = regexp.MustCompile(`(?i)\b(assign|attach)\b\s*trip\s*(\d+)\s*(?:to|with)\s*load\s*(\d+)`)
	reAssignVerb = regexp.MustCompile(`(?i)\b(assign|attach|map|link)\b`)

	reAddTrip = regexp.MustCompile(`(?i)\badd\s*trip\b.*\bdriver\s*(?:id\s*)?(\d+)\b.*\bvehicle\s*(?:id\s*)?(\d+)\b`)

	reAddLocation = regexp.MustCompile(`(?i)\badd\s+location\b.*\btrip\s*(?:id\s*)?(\d+)\b.*\blat(?:itude)?\s*([+-]?\d+(?:\.\d+)?)\b.*\b(?:lon(?:gitude)?|lng)\s*([+-]?\d+(?:\.\d+)?)\b(?:.*\baddress\s+(.+))?`)

	reAddExpense = regexp.MustCompile(`(?i)\badd\s+expense\b.*\btrip\s*(?:id\s*)?(\d+)\b\s+([a-z_]+)\s+(\d+(?:\.\d+)?)\b.*\bdriver\s*(?:id\s*)?(\d+)\b`)

	reTripID    = regexp.MustCompile(`(?i)\btrip\s*(?:id\s*)?(\d+)`)
	reLoadID    = regexp.MustCompile(`(?i)\bload\s*(?:id\s*)?(\d+)`)
	reVehicleID = regexp.MustCompile(`(?i)\bvehicle\s*(?:id\s*)?(\d+)`)

	reGreeting = regexp.MustCompile(`(?i)\b(hi|hello|hey|greetings)\b`)
)

// Query id hint patterns, checked in order; first hit wins.
var queryHintPatterns = []struct {
	intent Intent
	re     *regexp.Regexp
}{
	{IntentTripDetails, reTripID},
	{IntentVehicleSummary, reVehicleID},
	{IntentOwnerSummary, reOwnerID},
	{IntentLoadDetails, reLoadID},
	{IntentDriverExpenses, regexp.MustCompile(`(?i)\bdriver\s*(?:id\s*)?(\d+).*\bexpenses?\b`)},
	{IntentUserExpenses, regexp.MustCompile(`(?i)\buser\s*(?:id\s*)?(\d+).*\bexpenses?\b`)},
	{IntentUserDetails, reUserDetails},
}

const greetingReply = "Hi! I can help with trips, vehicles, loads and expenses. What would you like to do?"

func (p *Pipeline) route(st *TurnState) {
	text := strings.TrimSpace(st.UserInput)
	if st.Entities == nil {
		st.Entities = make(Entities)
	}
	entities := st.Entities

	// Fast-path: explicit user profile/details query.
	if m := reUserDetails.FindStringSubmatch(text); m != nil {
		entities["id"] = mustID(m[1])
		st.Intent = IntentUserDetails
		st.NextAction = ActionQuery
		logging.Router("fastpath user_details id=%v", entities["id"])
		return
	}

	// Fast-path: explicit user registration.
	if reRegisterUser.MatchString(text) {
		routeRegisterUser(text, entities)
		st.Intent = IntentRegisterUser
		st.NextAction = ActionMutation
		logging.Router("fastpath register_user entities=%d", len(entities))
		return
	}

	// NL update hint: lift the id, let the planner pick the intent.
	if m := reNLUpdateHint.FindStringSubmatch(text); m != nil {
		entities["id"] = mustID(m[3])
	}

	// Assignment hints in either phrase order.
	if m := reAssignLoad.FindStringSubmatch(text); m != nil {
		entities["load_id"] = mustID(m[2])
		entities["trip_id"] = mustID(m[3])
	}
	if m := reAssignTrip.FindStringSubmatch(text); m != nil {
		entities["trip_id"] = mustID(m[2])
		entities["load_id"] = mustID(m[3])
	}

	// Fast-path: explicit add trip with both ids.
	if m := reAddTrip.FindStringSubmatch(text); m != nil {
		entities["driver_id"] = mustID(m[1])
		entities["vehicle_id"] = mustID(m[2])
		st.Intent = IntentAddTrip
		st.NextAction = ActionMutation
		logging.Router("fastpath add_trip driver=%v vehicle=%v", entities["driver_id"], entities["vehicle_id"])
		return
	}

	// Fast-path: explicit location update with coordinates.
	if m := reAddLocation.FindStringSubmatch(text); m != nil {
		entities["trip_id"] = mustID(m[1])
		if lat, err := strconv.ParseFloat(m[2], 64); err == nil {
			entities["latitude"] = lat
		}
		if lng, err := strconv.ParseFloat(m[3], 64); err == nil {
			entities["longitude"] = lng
		}
		if addr := strings.TrimSpace(m[4]); addr != "" {
			entities["address"] = addr
		}
		st.Intent = IntentAddLocationUpdate
		st.NextAction = ActionMutation
		logging.Router("fastpath add_location_update trip=%v", entities["trip_id"])
		return
	}

	// Fast-path: explicit expense "add expense trip 4 fuel 500 driver 2".
	if m := reAddExpense.FindStringSubmatch(text); m != nil {
		entities["trip_id"] = mustID(m[1])
		entities["expense_type"] = strings.ToLower(strings.TrimSpace(m[2]))
		if amount, err := strconv.ParseFloat(m[3], 64); err == nil {
			entities["amount"] = amount
		}
		entities["driver_id"] = mustID(m[4])
		st.Intent = IntentAddExpense
		st.NextAction = ActionMutation
		logging.Router("fastpath add_expense trip=%v driver=%v", entities["trip_id"], entities["driver_id"])
		return
	}

	// Generic assign hints: assign verb plus both ids anywhere.
	if reAssignVerb.MatchString(text) {
		tm := reTripID.FindStringSubmatch(text)
		lm := reLoadID.FindStringSubmatch(text)
		if tm != nil && lm != nil {
			entities["trip_id"] = mustID(tm[1])
			entities["load_id"] = mustID(lm[1])
		}
	}

	// Lift a bare query id hint; the planner still decides the intent.
	for _, qp := range queryHintPatterns {
		if m := qp.re.FindStringSubmatch(text); m != nil {
			entities["id"] = mustID(m[1])
			logging.RouterDebug("id hint from %s pattern: %v", qp.intent, entities["id"])
			break
		}
	}

	// Greeting shortcut ends the turn without model cost.
	if reGreeting.MatchString(text) {
		st.Intent = IntentGreeting
		st.Entities = make(Entities)
		st.AppendAssistant(greetingReply)
		st.NextAction = ActionEnd
		logging.Router("greeting shortcut")
		return
	}

	st.Intent = IntentChat
	st.NextAction = ActionPlanner
}

// routeRegisterUser extracts registration fields without the model.
func routeRegisterUser(text string, entities Entities) {
	low := strings.ToLower(text)

	role := ""
	if m := reRole.FindStringSubmatch(low); m != nil {
		role = m[1]
	} else if strings.Contains(low, "register driver") {
		role = "driver"
	} else if strings.Contains(low, "register customer") {
		role = "customer"
	}

	if m := reOwnerID.FindStringSubmatch(low); m != nil {
		entities["owner_id"] = mustID(m[1])
	}
	if m := reEmail.FindStringSubmatch(text); m != nil {
		entities["email"] = m[1]
	}
	if m := rePhoneLabeled.FindStringSubmatch(low); m != nil {
		entities["phone_number"] = m[1]
	} else if m := rePhoneBare.FindStringSubmatch(low); m != nil {
		entities["phone_number"] = m[1]
	}

	name := ""
	if m := reFullName.FindStringSubmatch(text); m != nil {
		name = m[1]
	} else if m := reRegisterName.FindStringSubmatch(text); m != nil {
		name = m[1]
	}
	if name != "" {
		// Trim the name at the first field marker that follows it.
		if loc := reNameMarker.FindStringIndex(name); loc != nil {
			name = name[:loc[0]]
		}
		name = strings.Trim(name, " -,:\t\n\r")
		if name != "" {
			entities["full_name"] = name
		}
	}
	if role != "" {
		entities["role"] = role
	}
}

func mustID(digits string) int64 {
	n, _ := strconv.ParseInt(digits, 10, 64)
	return n
}
