package pipeline

import (
	"fmt"

	"fleetmind/internal/authz"
	"fleetmind/internal/logging"
)

// The query executor runs read-only lookups for resolved intents
// without invoking a model. It requires a concrete target id in
// entities and flattens the read models into scalar result fields for
// the reflector.

func (p *Pipeline) execQuery(st *TurnState) {
	intent := st.Intent

	if !authz.IsAllowed(st.ActorRole, string(intent), st.Entities) {
		st.LastResult = Result{"status": "error", "message": authz.DenyMessage(st.ActorRole, string(intent))}
		st.NextAction = ActionVerify
		logging.Query("denied %s for role %s", intent, st.ActorRole)
		return
	}

	if !intent.IsQuery() {
		st.AppendAssistant("Unsupported query intent.")
		st.NextAction = ActionEnd
		return
	}

	id, ok := st.Entities.Int64("id")
	if !ok {
		st.LastResult = Result{"status": "error", "message": "No id provided"}
		st.NextAction = ActionVerify
		return
	}

	logging.Query("executing %s id=%d", intent, id)
	st.LastResult = p.dispatchQuery(intent, id)
	st.NextAction = ActionVerify
}

func (p *Pipeline) dispatchQuery(intent Intent, id int64) Result {
	switch intent {
	case IntentTripDetails:
		d, err := p.store.GetTripDetails(id)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":                d.Status,
			"trip_id":               d.TripID,
			"driver_id":             d.DriverID,
			"vehicle_id":            d.VehicleID,
			"start_time":            orNil(d.StartTime),
			"end_time":              orNil(d.EndTime),
			"total_expense":         d.TotalExpense,
			"expense_count":         d.ExpenseCount,
			"load_count":            d.LoadCount,
			"location_update_count": d.LocationUpdateCount,
		}

	case IntentTripExpenses:
		te, err := p.store.GetTripExpenses(id)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":            "success",
			"trip_id":           te.TripID,
			"total_expense":     te.TotalExpense,
			"expense_count":     te.ExpenseCount,
			"expense_breakdown": te.Breakdown,
		}

	case IntentVehicleSummary:
		v, err := p.store.GetVehicleSummary(id)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":        v.Status,
			"vehicle_id":    v.VehicleID,
			"owner_id":      v.OwnerID,
			"license_plate": v.LicensePlate,
			"capacity_kg":   v.CapacityKG,
			"trip_count":    v.TripCount,
			"total_expense": v.TotalExpense,
		}

	case IntentOwnerSummary:
		o, err := p.store.GetOwnerSummary(id)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":        "success",
			"owner_id":      o.OwnerID,
			"company_name":  o.CompanyName,
			"vehicle_count": o.VehicleCount,
			"driver_count":  o.DriverCount,
			"trip_count":    o.TripCount,
			"total_expense": o.TotalExpense,
		}

	case IntentLoadDetails:
		l, err := p.store.GetLoadDetails(id)
		if err != nil {
			return errorResult(err)
		}
		res := Result{
			"status":              l.Status,
			"load_id":             l.LoadID,
			"customer_id":         l.CustomerID,
			"pickup_address":      l.PickupAddress,
			"destination_address": l.DestinationAddress,
			"weight_kg":           l.WeightKG,
			"description":         orNil(l.Description),
		}
		if l.TripID != 0 {
			res["trip_id"] = l.TripID
		}
		return res

	case IntentUserDetails:
		u, err := p.store.GetUserDetails(id)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":       "success",
			"user_id":      u.UserID,
			"owner_id":     u.OwnerID,
			"full_name":    u.FullName,
			"email":        u.Email,
			"phone_number": u.PhoneNumber,
			"role":         u.Role,
		}

	case IntentDriverDetails:
		d, err := p.store.GetDriverDetails(id)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":        "success",
			"user_id":       d.UserID,
			"owner_id":      d.OwnerID,
			"full_name":     d.FullName,
			"email":         d.Email,
			"phone_number":  d.PhoneNumber,
			"role":          d.Role,
			"trip_count":    d.TripCount,
			"total_expense": d.TotalExpense,
		}

	case IntentDriverExpenses, IntentUserExpenses:
		ue, err := p.store.GetUserExpenses(id)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":            "success",
			"user_id":           ue.UserID,
			"full_name":         ue.FullName,
			"total_expense":     ue.TotalExpense,
			"expense_count":     ue.ExpenseCount,
			"expense_breakdown": ue.Breakdown,
		}
	}

	return Result{"status": "error", "message": fmt.Sprintf("unsupported query intent: %s", intent)}
}

// orNil maps empty strings to nil so the reflector renders "(not set)".
func orNil(v string) any {
	if v == "" {
		return nil
	}
	return v
}
