package pipeline

import (
	"regexp"
	"strings"

	"fleetmind/internal/logging"
)

// The verifier sanity-checks the last result before reflection. It
// never touches the store; its one real job is turning missing-field
// failures into targeted questions the reflector can present.

var (
	reMissingFields = regexp.MustCompile(`(?i)Missing fields:\s*(.+)$`)
	reIsRequired    = regexp.MustCompile(`(?i)'([^']+)'\s+is\s+required`)
)

// fieldQuestions maps a missing field to the question asked for it.
var fieldQuestions = map[string]string{
	// Owner / company
	"company_name":     "Company name?",
	"business_address": "Business address?",
	"contact_email":    "Contact email?",
	"gst_number":       "GST number? (optional)",
	// User
	"owner_id":      "Owner ID? (default 1 if unknown)",
	"full_name":     "Full name?",
	"email":         "Email address?",
	"password_hash": "Password? (leave empty for temporary)",
	"phone_number":  "Phone number?",
	"role":          "Role? (driver / customer / owner)",
	// Vehicle
	"license_plate": "Vehicle license plate?",
	"capacity_kg":   "Cargo capacity (kg)?",
	"status":        "Vehicle status? (available / in_use / maintenance / out_of_service) (optional)",
	// Trip
	"driver_id":  "Driver ID? (or name/email/phone)",
	"vehicle_id": "Vehicle ID? (or license plate)",
	"start_time": "Start time (ISO)? (optional)",
	"end_time":   "End time (ISO)? (optional)",
	// Expense
	"amount":       "Expense amount?",
	"expense_type": "Expense type? (fuel / maintenance / toll / food / accommodation / other)",
	"trip_id":      "Trip ID? (optional)",
	"description":  "Short description? (optional)",
	"receipt_url":  "Receipt URL? (optional)",
	// Load
	"customer_id":         "Customer ID? (or name/email/phone)",
	"pickup_address":      "Pickup address?",
	"destination_address": "Destination address?",
	"weight_kg":           "Weight (kg)? (optional)",
	// Assign / location
	"load_id":   "Load ID?",
	"latitude":  "Latitude?",
	"longitude": "Longitude?",
	"address":   "Address? (optional)",
	"speed_kmh": "Speed (km/h)? (optional)",
}

// intentOptionalFields lists the nice-to-have fields suggested when an
// intent is incomplete.
var intentOptionalFields = map[Intent][]string{
	IntentCreateLoad:        {"weight_kg", "description", "trip_id"},
	IntentAddExpense:        {"trip_id", "description", "receipt_url"},
	IntentAddVehicle:        {"status"},
	IntentAddTrip:           {"start_time", "end_time"},
	IntentAddLocationUpdate: {"speed_kmh", "address"},
}

func (p *Pipeline) verify(st *TurnState) {
	result := st.LastResult
	if result == nil {
		result = Result{}
	}
	status := result.Status()

	if status == "error" || status == "failed" {
		message := result.Message("Operation failed.")
		if missing := extractMissingFields(message); len(missing) > 0 {
			p.askForMissing(st, missing)
		} else {
			st.Summary = message
		}
		st.NextAction = ActionReflect
		return
	}

	// A result counts as ok with an explicit success or at least one
	// scalar field besides the status/message markers.
	ok := status == "success"
	if !ok {
		for k, v := range result {
			if k == "status" || k == "message" {
				continue
			}
			switch v.(type) {
			case nil, string, bool, int, int64, float64:
				ok = true
			}
			if ok {
				break
			}
		}
	}

	if !ok {
		message := result.Message("No data found.")
		if missing := extractMissingFields(message); len(missing) > 0 {
			p.askForMissing(st, missing)
		} else {
			st.Summary = message
		}
	}
	st.NextAction = ActionReflect
}

// askForMissing rewrites the result as an incomplete record carrying
// the questions to ask, plus optional-field suggestions for the intent.
func (p *Pipeline) askForMissing(st *TurnState, missing []string) {
	questions := make([]string, 0, len(missing))
	for _, f := range missing {
		if q, ok := fieldQuestions[f]; ok {
			questions = append(questions, q)
		} else {
			questions = append(questions, "I need '"+f+"'. Please provide it.")
		}
	}

	var optional, optionalQs []string
	for _, opt := range intentOptionalFields[st.Intent] {
		if !st.Entities.Has(opt) {
			optional = append(optional, opt)
			if q, ok := fieldQuestions[opt]; ok {
				optionalQs = append(optionalQs, q)
			} else {
				optionalQs = append(optionalQs, "(Optional) Provide "+opt+" if available.")
			}
		}
	}

	st.LastResult = Result{
		"status":             "incomplete",
		"missing_fields":     missing,
		"questions":          questions,
		"optional_fields":    optional,
		"optional_questions": optionalQs,
	}
	st.Summary = questions[0]
	logging.Get(logging.CategoryVerify).Info("%s missing %v", st.Intent, missing)
}

// extractMissingFields pulls field names out of the two recognized
// incomplete-message shapes: "Missing fields: a, b" and "'f' is required".
func extractMissingFields(message string) []string {
	if message == "" {
		return nil
	}
	if m := reMissingFields.FindStringSubmatch(message); m != nil {
		var fields []string
		for _, part := range strings.Split(m[1], ",") {
			if f := strings.TrimSpace(part); f != "" {
				fields = append(fields, f)
			}
		}
		return fields
	}
	var fields []string
	for _, m := range reIsRequired.FindAllStringSubmatch(message, -1) {
		fields = append(fields, m[1])
	}
	return fields
}
