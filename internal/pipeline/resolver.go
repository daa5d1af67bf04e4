package pipeline

import (
	"strings"

	"fleetmind/internal/logging"
	"fleetmind/internal/store"
)

// The resolver fills in missing numeric ids from fuzzy hints (names,
// email, phone, license plate) with direct store lookups. It never
// invents an id: an unresolved target becomes an incomplete result for
// the verifier to turn into a question.

func (p *Pipeline) resolve(st *TurnState) {
	intent := st.Intent
	entities := st.Entities

	switch intent {
	case IntentOwnerSummary, IntentAddVehicle, IntentRegisterUser:
		if oid := p.resolveOwnerID(entities); oid != 0 {
			entities["owner_id"] = oid
			if intent == IntentOwnerSummary {
				entities["id"] = oid
			}
		}
	}

	switch intent {
	case IntentAddTrip, IntentAddExpense, IntentUserExpenses, IntentDriverExpenses, IntentDriverDetails:
		// Trips and expenses always attach to drivers.
		if uid := p.resolvePersonID(entities, "driver"); uid != 0 {
			switch intent {
			case IntentUserExpenses, IntentDriverExpenses, IntentDriverDetails:
				entities["id"] = uid
			case IntentAddTrip, IntentAddExpense:
				entities["driver_id"] = uid
			}
		}
	}

	switch intent {
	case IntentAddTrip, IntentVehicleSummary:
		if vid := p.resolveVehicleID(entities); vid != 0 {
			if intent == IntentVehicleSummary {
				entities["id"] = vid
			} else {
				entities["vehicle_id"] = vid
			}
		}
	}

	if intent == IntentCreateLoad {
		if cid := p.resolvePersonID(entities, "customer"); cid != 0 {
			entities["customer_id"] = cid
		}
	}

	if intent == IntentAssignLoadToTrip || intent == IntentLoadDetails {
		// Loads resolve by explicit id only.
		if lid, ok := entities.FirstInt64("load_id"); ok && lid != 0 {
			if intent == IntentLoadDetails {
				entities["id"] = lid
			} else {
				entities["load_id"] = lid
			}
		}
	}

	// Queries need a concrete target id.
	if intent.IsQuery() {
		if !entities.Has("id") {
			if intent == IntentDriverDetails {
				st.LastResult = Result{"status": "incomplete", "message": "Missing fields: driver_id"}
			} else {
				st.LastResult = Result{"status": "incomplete", "message": "Couldn't resolve target ID for query."}
			}
			st.NextAction = ActionVerify
			logging.Resolve("query %s unresolved", intent)
			return
		}
		st.NextAction = ActionQuery
		return
	}

	// Mutations: check the foreign keys this intent depends on.
	if intent.IsMutation() {
		var missing []string
		if intent == IntentAddVehicle && !entities.Has("owner_id") {
			missing = append(missing, "owner_id")
		}
		if intent == IntentAddTrip {
			if !entities.Has("driver_id") {
				missing = append(missing, "driver_id")
			}
			if !entities.Has("vehicle_id") {
				missing = append(missing, "vehicle_id")
			}
		}
		if intent == IntentAddExpense && !entities.Has("driver_id") {
			missing = append(missing, "driver_id")
		}
		if intent == IntentCreateLoad && !entities.Has("customer_id") {
			missing = append(missing, "customer_id")
		}
		if len(missing) > 0 {
			st.LastResult = Result{"status": "incomplete", "message": "Missing fields: " + strings.Join(missing, ", ")}
			st.NextAction = ActionVerify
			logging.Resolve("mutation %s missing %v", intent, missing)
			return
		}
		st.NextAction = ActionMutation
		return
	}

	st.AppendAssistant("I couldn't determine what to resolve. Try a specific ID or name.")
	st.NextAction = ActionEnd
}

// resolveOwnerID returns an owner id from an explicit id or a company
// name hint, or 0.
func (p *Pipeline) resolveOwnerID(entities Entities) int64 {
	if id, ok := entities.Int64("owner_id"); ok && id != 0 {
		return id
	}
	name := entities.FirstStr("company_name", "owner_name")
	if name == "" {
		return 0
	}
	id, err := p.store.OwnerIDByName(name)
	if err != nil {
		if err != store.ErrNotFound {
			logging.Resolve("owner lookup error: %v", err)
		}
		return 0
	}
	return id
}

// resolvePersonID returns a user id for the given role from an explicit
// id or email/phone/name hints, or 0. Explicit ids always win over
// fuzzy hints.
func (p *Pipeline) resolvePersonID(entities Entities, role string) int64 {
	if id, ok := entities.FirstInt64("user_id", "driver_id", "customer_id"); ok && id != 0 {
		return id
	}
	hints := store.UserHints{
		Email:    entities.Str("email"),
		Phone:    entities.FirstStr("phone_number", "phone"),
		FullName: entities.FirstStr("full_name", "name", "driver_name", "customer_name"),
	}
	if hints.Email == "" && hints.Phone == "" && hints.FullName == "" {
		return 0
	}
	id, err := p.store.UserIDByHints(role, hints)
	if err != nil {
		if err != store.ErrNotFound {
			logging.Resolve("user lookup error: %v", err)
		}
		return 0
	}
	return id
}

// resolveVehicleID returns a vehicle id from an explicit id or a plate
// hint, or 0.
func (p *Pipeline) resolveVehicleID(entities Entities) int64 {
	if id, ok := entities.Int64("vehicle_id"); ok && id != 0 {
		return id
	}
	plate := entities.FirstStr("license_plate", "plate")
	if plate == "" {
		return 0
	}
	id, err := p.store.VehicleIDByPlate(plate)
	if err != nil {
		if err != store.ErrNotFound {
			logging.Resolve("vehicle lookup error: %v", err)
		}
		return 0
	}
	return id
}
