package pipeline

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"fleetmind/internal/authz"
	"fleetmind/internal/logging"
	"fleetmind/internal/store"
)

// The mutation executor performs state-changing operations once the
// required ids and fields exist. Entity synonyms are normalized first,
// required fields validated second, and only then does the store get
// called.

// requiredFields lists the fields each mutation must have after
// normalization. nl_update is exempt: it parses raw text itself.
var requiredFields = map[Intent][]string{
	IntentRegisterOwner:     {"company_name", "business_address", "contact_email"},
	IntentRegisterUser:      {"owner_id", "full_name", "email", "phone_number", "role"},
	IntentAddVehicle:        {"owner_id", "license_plate", "capacity_kg"},
	IntentAddTrip:           {"driver_id", "vehicle_id"},
	IntentAddExpense:        {"driver_id", "amount", "expense_type"},
	IntentCreateLoad:        {"customer_id", "pickup_address", "destination_address"},
	IntentAssignLoadToTrip:  {"load_id", "trip_id"},
	IntentAddLocationUpdate: {"trip_id", "latitude", "longitude"},
}

func (p *Pipeline) execMutation(st *TurnState) {
	intent := st.Intent

	if !authz.IsAllowed(st.ActorRole, string(intent), st.Entities) {
		st.LastResult = Result{"status": "error", "message": authz.DenyMessage(st.ActorRole, string(intent))}
		st.NextAction = ActionVerify
		logging.Mutation("denied %s for role %s", intent, st.ActorRole)
		return
	}

	if !intent.IsMutation() {
		st.AppendAssistant(fmt.Sprintf("Unsupported mutation intent: %s", intent))
		st.NextAction = ActionEnd
		return
	}

	payload := p.normalizeMutationPayload(intent, st.Entities)

	if intent != IntentNLUpdate {
		var missing []string
		for _, f := range requiredFields[intent] {
			if !payload.Has(f) {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			st.LastResult = Result{"status": "incomplete", "message": "Missing fields: " + strings.Join(missing, ", ")}
			st.NextAction = ActionVerify
			logging.Mutation("%s incomplete, missing %v", intent, missing)
			return
		}
	}

	logging.Mutation("executing %s", intent)
	st.LastResult = p.dispatchMutation(intent, payload, st.UserInput)
	st.NextAction = ActionVerify
}

// normalizeMutationPayload maps entity synonyms onto the canonical
// field names the store expects.
func (p *Pipeline) normalizeMutationPayload(intent Intent, entities Entities) Entities {
	out := make(Entities)
	switch intent {
	case IntentRegisterOwner:
		copyFirst(out, "company_name", entities, "company_name", "name", "owner_name")
		copyFirst(out, "business_address", entities, "business_address", "address")
		copyFirst(out, "contact_email", entities, "contact_email", "email")
		copyFirst(out, "gst_number", entities, "gst_number")

	case IntentRegisterUser:
		copyFirst(out, "full_name", entities, "full_name", "name")
		copyFirst(out, "email", entities, "email")
		copyFirst(out, "phone_number", entities, "phone_number", "phone")
		copyFirst(out, "role", entities, "role")
		// Infer the role from the raw text when the planner dropped it.
		if !out.Has("role") {
			raw := strings.ToLower(entities.Str(RawInputKey))
			if strings.Contains(raw, "customer") {
				out["role"] = "customer"
			} else if strings.Contains(raw, "driver") {
				out["role"] = "driver"
			}
		}
		if entities.Has("password_hash") {
			out["password_hash"] = entities.Str("password_hash")
		} else if name := out.Str("full_name"); name != "" {
			out["password_hash"] = tempPasswordHash(name)
		}
		if id, ok := entities.Int64("owner_id"); ok && id != 0 {
			out["owner_id"] = id
		} else {
			// Auto-pick when exactly one owner exists, else hard default.
			if oid, ok, err := p.store.SingleOwnerID(); err == nil && ok {
				out["owner_id"] = oid
			} else {
				out["owner_id"] = int64(1)
			}
		}

	case IntentAddVehicle:
		copyFirst(out, "license_plate", entities, "license_plate", "plate", "license", "license_no")
		copyFirst(out, "capacity_kg", entities, "capacity_kg", "capacity", "capacitykg")
		copyFirst(out, "status", entities, "status")
		copyFirst(out, "owner_id", entities, "owner_id")

	case IntentAddTrip:
		copyFirst(out, "driver_id", entities, "driver_id")
		copyFirst(out, "vehicle_id", entities, "vehicle_id")
		copyFirst(out, "status", entities, "status")
		copyFirst(out, "start_time", entities, "start_time")
		copyFirst(out, "end_time", entities, "end_time")

	case IntentAddExpense:
		copyFirst(out, "expense_type", entities, "expense_type", "category", "type")
		copyFirst(out, "driver_id", entities, "driver_id", "user_id")
		copyFirst(out, "amount", entities, "amount")
		copyFirst(out, "trip_id", entities, "trip_id")
		copyFirst(out, "description", entities, "description")
		copyFirst(out, "receipt_url", entities, "receipt_url")

	case IntentCreateLoad:
		copyFirst(out, "customer_id", entities, "customer_id")
		copyFirst(out, "pickup_address", entities, "pickup_address", "origin")
		copyFirst(out, "destination_address", entities, "destination_address", "destination")
		copyFirst(out, "weight_kg", entities, "weight_kg", "weight")
		copyFirst(out, "description", entities, "description")
		copyFirst(out, "status", entities, "status")

	case IntentAssignLoadToTrip:
		copyFirst(out, "load_id", entities, "load_id")
		copyFirst(out, "trip_id", entities, "trip_id")

	case IntentAddLocationUpdate:
		copyFirst(out, "trip_id", entities, "trip_id")
		copyFirst(out, "latitude", entities, "latitude", "lat")
		copyFirst(out, "longitude", entities, "longitude", "lng", "long")
		copyFirst(out, "speed_kmh", entities, "speed_kmh")
		copyFirst(out, "address", entities, "address")

	default:
		return entities.Clone()
	}
	return out
}

func (p *Pipeline) dispatchMutation(intent Intent, payload Entities, rawInput string) Result {
	switch intent {
	case IntentRegisterOwner:
		company := payload.Str("company_name")
		id, err := p.store.RegisterOwner(store.OwnerParams{
			CompanyName:     company,
			BusinessAddress: payload.Str("business_address"),
			ContactEmail:    payload.Str("contact_email"),
			GSTNumber:       payload.Str("gst_number"),
		})
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":   "success",
			"owner_id": id,
			"message":  fmt.Sprintf("Owner '%s' registered successfully", company),
		}

	case IntentRegisterUser:
		name := payload.Str("full_name")
		ownerID, _ := payload.Int64("owner_id")
		id, err := p.store.RegisterUser(store.UserParams{
			OwnerID:      ownerID,
			FullName:     name,
			Email:        payload.Str("email"),
			PasswordHash: payload.Str("password_hash"),
			PhoneNumber:  payload.Str("phone_number"),
			Role:         payload.Str("role"),
		})
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":  "success",
			"user_id": id,
			"message": fmt.Sprintf("User '%s' registered successfully", name),
		}

	case IntentAddVehicle:
		plate := payload.Str("license_plate")
		ownerID, _ := payload.Int64("owner_id")
		capacity, _ := payload.Float("capacity_kg")
		id, err := p.store.AddVehicle(store.VehicleParams{
			OwnerID:      ownerID,
			LicensePlate: plate,
			CapacityKG:   capacity,
			Status:       payload.Str("status"),
		})
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":     "success",
			"vehicle_id": id,
			"message":    fmt.Sprintf("Vehicle '%s' added successfully", plate),
		}

	case IntentAddTrip:
		driverID, _ := payload.Int64("driver_id")
		vehicleID, _ := payload.Int64("vehicle_id")
		id, err := p.store.AddTrip(store.TripParams{
			DriverID:  driverID,
			VehicleID: vehicleID,
			Status:    payload.Str("status"),
			StartTime: payload.Str("start_time"),
			EndTime:   payload.Str("end_time"),
		})
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":  "success",
			"trip_id": id,
			"message": fmt.Sprintf("Trip %d created successfully", id),
		}

	case IntentAddExpense:
		driverID, _ := payload.Int64("driver_id")
		tripID, _ := payload.Int64("trip_id")
		amount, _ := payload.Float("amount")
		id, err := p.store.AddExpense(store.ExpenseParams{
			DriverID:    driverID,
			TripID:      tripID,
			Amount:      amount,
			ExpenseType: payload.Str("expense_type"),
			Description: payload.Str("description"),
			ReceiptURL:  payload.Str("receipt_url"),
		})
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":     "success",
			"expense_id": id,
			"message":    fmt.Sprintf("Expense of ₹%s recorded successfully", formatAmount(amount)),
		}

	case IntentCreateLoad:
		customerID, _ := payload.Int64("customer_id")
		weight, _ := payload.Float("weight_kg")
		id, err := p.store.CreateLoad(store.LoadParams{
			CustomerID:         customerID,
			PickupAddress:      payload.Str("pickup_address"),
			DestinationAddress: payload.Str("destination_address"),
			WeightKG:           weight,
			Description:        payload.Str("description"),
			Status:             payload.Str("status"),
		})
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":  "success",
			"load_id": id,
			"message": fmt.Sprintf("Load %d created successfully", id),
		}

	case IntentAssignLoadToTrip:
		loadID, _ := payload.Int64("load_id")
		tripID, _ := payload.Int64("trip_id")
		if err := p.store.AssignLoadToTrip(loadID, tripID); err != nil {
			return errorResult(err)
		}
		return Result{
			"status":  "success",
			"load_id": loadID,
			"trip_id": tripID,
			"message": fmt.Sprintf("Load %d assigned to trip %d", loadID, tripID),
		}

	case IntentAddLocationUpdate:
		tripID, _ := payload.Int64("trip_id")
		lat, _ := payload.Float("latitude")
		lng, _ := payload.Float("longitude")
		speed, _ := payload.Float("speed_kmh")
		id, err := p.store.AddLocationUpdate(store.LocationParams{
			TripID:    tripID,
			Latitude:  lat,
			Longitude: lng,
			SpeedKMH:  speed,
			Address:   payload.Str("address"),
		})
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":      "success",
			"location_id": id,
			"message":     fmt.Sprintf("Location update recorded for trip %d", tripID),
		}

	case IntentNLUpdate:
		res, err := p.store.NLUpdate(rawInput)
		if err != nil {
			return errorResult(err)
		}
		return Result{
			"status":  "success",
			"entity":  res.Entity,
			"id":      res.ID,
			"field":   res.Field,
			"value":   res.Value,
			"message": fmt.Sprintf("Updated %s %d: %s = %s", res.Entity, res.ID, res.Field, res.Value),
		}
	}

	return Result{"status": "error", "message": fmt.Sprintf("unsupported mutation intent: %s", intent)}
}

func errorResult(err error) Result {
	return Result{"status": "error", "message": err.Error()}
}

// copyFirst sets dst[field] to the first non-empty value among keys.
func copyFirst(dst Entities, field string, src Entities, keys ...string) {
	if v, ok := src.First(keys...); ok {
		dst[field] = v
	}
}

// tempPasswordHash synthesizes a placeholder credential so registration
// can proceed before the user sets a real password.
func tempPasswordHash(seed string) string {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return "temp_hash_" + strconv.FormatUint(h.Sum64(), 16)
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
