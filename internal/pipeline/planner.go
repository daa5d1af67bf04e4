package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fleetmind/internal/logging"
)

// The planner is the only stage allowed to interpret broad natural
// language. It makes exactly one model call per pass and converts the
// output into an intent plus flat entities; it never performs actions.

type plannerOutput struct {
	TaskType string         `json:"task_type"`
	Entities map[string]any `json:"entities"`
}

func (p *Pipeline) plan(ctx context.Context, st *TurnState) {
	intent := IntentChat
	var extracted Entities

	raw, err := p.complete(ctx, st.UserInput)
	if err != nil {
		st.Err = fmt.Sprintf("planner_error: %v", err)
		logging.Planner("planner failed, falling back to chat: %v", err)
	} else {
		parsed, perr := parsePlannerOutput(raw)
		if perr != nil {
			st.Err = fmt.Sprintf("planner_error: %v", perr)
			logging.Planner("unparseable planner output, falling back to chat: %v", perr)
		} else {
			intent = NormalizeIntent(parsed.TaskType)
			extracted = parsed.Entities
			logging.PlannerDebug("task_type=%s entities=%d", parsed.TaskType, len(extracted))
		}
	}

	// Merge onto prior entities so multi-turn context accumulates; new
	// values override, absent keys survive.
	if st.Entities == nil {
		st.Entities = make(Entities)
	}
	st.Entities.Merge(extracted)
	if st.UserInput != "" {
		st.Entities[RawInputKey] = st.UserInput
	}

	// Focus heuristic: a generic "expenses" ask while a trip is in focus
	// means that trip's expenses.
	low := strings.ToLower(st.UserInput)
	if strings.Contains(low, "expense") && !strings.Contains(low, "trip") {
		if tripID, ok := st.Focus["trip_id"]; ok && tripID != 0 {
			switch intent {
			case IntentChat, IntentUserExpenses, IntentDriverExpenses:
				intent = IntentTripExpenses
				st.Entities["id"] = tripID
				logging.Planner("focus heuristic: rerouting to trip_expenses id=%d", tripID)
			}
		}
	}

	st.Intent = intent

	switch {
	case needsResolution(intent, st.Entities):
		st.NextAction = ActionResolve
	case intent.IsMutation():
		st.NextAction = ActionMutation
	case intent.IsQuery():
		st.NextAction = ActionQuery
	default:
		st.NextAction = ActionChat
	}

	// Remember the queried trip so a follow-up "total expenses" refers
	// to it implicitly.
	if intent == IntentTripDetails || intent == IntentTripExpenses {
		if id, ok := st.Entities.Int64("id"); ok && id != 0 {
			if st.Focus == nil {
				st.Focus = make(map[string]int64)
			}
			st.Focus["trip_id"] = id
		}
	}
	logging.Planner("intent=%s next=%s", intent, st.NextAction)
}

// parsePlannerOutput decodes the model's JSON, tolerating markdown
// fences and a leading "json" label.
func parsePlannerOutput(raw string) (*plannerOutput, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.Trim(text, "`")
		text = strings.TrimSpace(strings.TrimPrefix(text, "json"))
	}
	var out plannerOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("invalid planner JSON: %w", err)
	}
	if out.TaskType == "" {
		out.TaskType = string(IntentChat)
	}
	if out.Entities == nil {
		out.Entities = make(map[string]any)
	}
	return &out, nil
}

var personHintKeys = []string{"driver_name", "full_name", "email", "phone", "phone_number"}

// needsResolution reports whether fuzzy hints must be mapped to ids
// before the intent can execute.
func needsResolution(intent Intent, entities Entities) bool {
	if intent.IsQuery() {
		if entities.Has("id") {
			return false
		}
		hintKeys := []string{"license_plate", "plate", "company_name", "owner_name", "driver_name", "full_name", "email", "phone", "phone_number"}
		for _, k := range hintKeys {
			if entities.Has(k) {
				return true
			}
		}
		return false
	}

	switch intent {
	case IntentRegisterUser, IntentAddVehicle:
		if !entities.Has("owner_id") && (entities.Has("company_name") || entities.Has("owner_name")) {
			return true
		}
	}
	switch intent {
	case IntentAddTrip, IntentAddExpense:
		if !entities.Has("driver_id") {
			for _, k := range personHintKeys {
				if entities.Has(k) {
					return true
				}
			}
		}
	}
	if intent == IntentAddTrip {
		if !entities.Has("vehicle_id") && (entities.Has("license_plate") || entities.Has("plate")) {
			return true
		}
	}
	if intent == IntentCreateLoad {
		if !entities.Has("customer_id") {
			for _, k := range []string{"customer_name", "full_name", "email", "phone", "phone_number"} {
				if entities.Has(k) {
					return true
				}
			}
		}
	}
	return false
}

// complete issues the single planner model call.
func (p *Pipeline) complete(ctx context.Context, userInput string) (string, error) {
	if p.llm == nil {
		return "", fmt.Errorf("no LLM configured")
	}
	timer := logging.StartTimer(logging.CategoryPlanner, "planner completion")
	defer timer.Stop()
	return p.llm.CompleteWithSystem(ctx, plannerSystemPrompt, userInput)
}
