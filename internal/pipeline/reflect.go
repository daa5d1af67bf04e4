package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"fleetmind/internal/logging"
)

// The reflector renders the final user-facing reply from the last
// result without calling a model, then decides whether the auto-loop
// should give the planner another pass.

func (p *Pipeline) reflect(st *TurnState) {
	result := st.LastResult
	if result == nil {
		result = Result{}
	}

	forceJSON := p.structuredJSON || strings.Contains(strings.ToLower(st.UserInput), "json")

	var content string
	switch {
	case forceJSON:
		content = asJSON(result)
	case st.Intent == IntentTripDetails:
		content = renderTripDetails(result)
	case result.Status() == "incomplete" && (len(stringSlice(result["questions"])) > 0 || len(stringSlice(result["optional_questions"])) > 0):
		content = renderMissing(result)
	case st.Intent == IntentTripExpenses:
		content = renderTripExpenses(result)
	default:
		content = renderGeneric(result, st.Summary)
	}

	st.AppendAssistant(content)

	// Loop back to the planner only while auto-loop is on, the budget
	// holds, and the result is still incomplete.
	status := result.Status()
	if st.AutoLoop && st.Iteration < st.MaxIterations && status == "incomplete" {
		st.Iteration++
		// Clear the input so the next planner pass leans on the
		// accumulated entities instead of re-parsing stale text.
		st.UserInput = ""
		st.NextAction = ActionLoop
		logging.Get(logging.CategoryReflect).Info("auto-loop iteration %d/%d", st.Iteration, st.MaxIterations)
		return
	}
	st.NextAction = ActionEnd
}

var tripDetailFields = []struct {
	key   string
	label string
}{
	{"trip_id", "Trip ID"},
	{"driver_id", "Driver ID"},
	{"vehicle_id", "Vehicle ID"},
	{"start_time", "Start Time"},
	{"end_time", "End Time"},
	{"total_expense", "Total Expense"},
	{"expense_count", "Expense Count"},
	{"load_count", "Load Count"},
	{"location_update_count", "Location Updates"},
}

func renderTripDetails(result Result) string {
	lines := []string{"Trip Details", "-------------"}
	for _, f := range tripDetailFields {
		val := result[f.key]
		rendered := toString(val)
		if val == nil || rendered == "" || rendered == "null" {
			rendered = "(not set)"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", f.label, rendered))
	}
	lines = append(lines, "Next: ask 'trip <id> expenses' or 'trip <id> loads'")
	return strings.Join(lines, "\n")
}

func renderTripExpenses(result Result) string {
	lines := []string{
		fmt.Sprintf("Trip %s Expenses", toString(result["trip_id"])),
		"------------------------",
		fmt.Sprintf("Total: %s (count: %s)", toString(result["total_expense"]), toString(result["expense_count"])),
	}
	if bd, ok := result["expense_breakdown"].(map[string]float64); ok && len(bd) > 0 {
		lines = append(lines, "Breakdown:")
		keys := make([]string, 0, len(bd))
		for k := range bd {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, toString(bd[k])))
		}
	}
	lines = append(lines, "Next: add 'add expense trip <id> fuel 500' or ask 'trip <id> loads'")
	return strings.Join(lines, "\n")
}

func renderMissing(result Result) string {
	lines := []string{"Missing information", "-------------------"}
	if missing := stringSlice(result["missing_fields"]); len(missing) > 0 {
		lines = append(lines, "Required fields: "+strings.Join(missing, ", "))
	}
	if questions := stringSlice(result["questions"]); len(questions) > 0 {
		lines = append(lines, "Please provide:")
		for _, q := range questions {
			lines = append(lines, "- "+q)
		}
	}
	if optional := stringSlice(result["optional_fields"]); len(optional) > 0 {
		lines = append(lines, "", "Optional fields (nice to have): "+strings.Join(optional, ", "))
	}
	if optionalQs := stringSlice(result["optional_questions"]); len(optionalQs) > 0 {
		lines = append(lines, "Optional suggestions:")
		for _, q := range optionalQs {
			lines = append(lines, "- "+q)
		}
	}
	return strings.Join(lines, "\n")
}

// renderGeneric emits compact key:value lines for scalar fields, sorted
// for stable output. Status markers from verification are skipped;
// entity statuses (available, maintenance, ...) are kept.
func renderGeneric(result Result, summary string) string {
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		v := result[k]
		if k == "status" {
			if s := toString(v); s == "incomplete" || s == "complete" {
				continue
			}
		}
		switch v.(type) {
		case map[string]float64, map[string]any, []any, []string:
			continue
		}
		rendered := toString(v)
		if v == nil || rendered == "null" {
			rendered = "(not set)"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", k, rendered))
	}
	if len(lines) == 0 {
		if summary != "" {
			return summary
		}
		return "No data"
	}
	return strings.Join(lines, "\n")
}

func asJSON(result Result) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(result))
	}
	return string(data)
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, toString(item))
		}
		return out
	}
	return nil
}
