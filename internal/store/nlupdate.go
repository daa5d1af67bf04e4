package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fleetmind/internal/logging"
)

// NLUpdate applies a single-field natural-language update of the form
// "change/set/update/mark <kind> <id> <field> <value>", e.g.
//
//	change driver 12 phone 9876543210
//	set vehicle 5 status maintenance
//	mark trip 7 completed
//
// Text that does not bind exactly one supported field on exactly one
// identified entity is rejected.

// NLUpdateResult describes the applied update.
type NLUpdateResult struct {
	Entity string
	ID     int64
	Field  string
	Value  string
}

var nlUpdateHead = regexp.MustCompile(
	`(?i)\b(change|set|update|mark)\b\s+(driver|user|vehicle|trip|load)\s*(?:id\s*)?(\d+)\b\s*(.*)$`,
)

// Per-kind field grammars. Each pattern captures the new value.
var nlFieldPatterns = map[string][]struct {
	field string
	re    *regexp.Regexp
}{
	"user": {
		{"phone_number", regexp.MustCompile(`(?i)^(?:phone(?:\s+number)?|mobile)\s+(?:to\s+)?(\S+)`)},
		{"email", regexp.MustCompile(`(?i)^email\s+(?:to\s+)?(\S+)`)},
		{"full_name", regexp.MustCompile(`(?i)^(?:full\s+)?name\s+(?:to\s+)?(.+)$`)},
	},
	"vehicle": {
		{"status", regexp.MustCompile(`(?i)^status\s+(?:to\s+)?(\S+)`)},
		{"capacity_kg", regexp.MustCompile(`(?i)^capacity(?:\s*kg)?\s+(?:to\s+)?(\d+(?:\.\d+)?)`)},
		{"license_plate", regexp.MustCompile(`(?i)^(?:license\s+)?plate\s+(?:to\s+)?(\S+)`)},
	},
	"trip": {
		{"status", regexp.MustCompile(`(?i)^status\s+(?:to\s+)?(\S+)`)},
	},
	"load": {
		{"status", regexp.MustCompile(`(?i)^status\s+(?:to\s+)?(\S+)`)},
	},
}

// Bare status words accepted after "mark <kind> <id> ..." with no field
// keyword.
var nlBareStatuses = map[string]map[string]bool{
	"trip":    {"scheduled": true, "started": true, "in_progress": true, "completed": true, "cancelled": true},
	"vehicle": {"available": true, "in_use": true, "maintenance": true, "out_of_service": true},
	"load":    {"pending": true, "assigned": true, "in_transit": true, "delivered": true, "cancelled": true},
}

var nlUpdateTargets = map[string]struct {
	table  string
	idCol  string
	fields map[string]bool
}{
	"user":    {"users", "user_id", map[string]bool{"phone_number": true, "email": true, "full_name": true}},
	"vehicle": {"vehicles", "vehicle_id", map[string]bool{"status": true, "capacity_kg": true, "license_plate": true}},
	"trip":    {"trips", "trip_id", map[string]bool{"status": true}},
	"load":    {"loads", "load_id", map[string]bool{"status": true}},
}

// NLUpdate parses and applies a single-field update from raw text.
func (s *Store) NLUpdate(text string) (*NLUpdateResult, error) {
	m := nlUpdateHead.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("could not identify an entity and id to update; try 'change driver 12 phone 9876543210'")
	}
	kind := strings.ToLower(m[2])
	// drivers live in the users table
	lookupKind := kind
	if kind == "driver" {
		lookupKind = "user"
	}
	id, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s id %q", kind, m[3])
	}
	rest := strings.TrimSpace(m[4])
	if rest == "" {
		return nil, fmt.Errorf("no field given for %s %d", kind, id)
	}

	field, value, err := parseNLField(lookupKind, rest)
	if err != nil {
		return nil, err
	}

	target := nlUpdateTargets[lookupKind]
	if !target.fields[field] {
		return nil, fmt.Errorf("field %q is not updatable on %s", field, kind)
	}
	if field == "status" {
		if allowed := nlBareStatuses[lookupKind]; allowed != nil && !allowed[strings.ToLower(value)] {
			return nil, fmt.Errorf("invalid %s status %q", kind, value)
		}
		value = strings.ToLower(value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var arg any = value
	if field == "capacity_kg" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid capacity %q", value)
		}
		arg = f
	}
	// target table/column names come from the fixed table above.
	q := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", target.table, field, target.idCol)
	res, err := s.db.Exec(q, arg, id)
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s with ID %d not found", kind, id)
	}

	logging.Store("nl_update applied: %s %d %s=%s", kind, id, field, value)
	return &NLUpdateResult{Entity: kind, ID: id, Field: field, Value: value}, nil
}

// parseNLField binds the remainder of the command to exactly one field.
func parseNLField(kind, rest string) (field, value string, err error) {
	var matches []struct{ field, value string }
	for _, fp := range nlFieldPatterns[kind] {
		if m := fp.re.FindStringSubmatch(rest); m != nil {
			matches = append(matches, struct{ field, value string }{fp.field, strings.TrimSpace(m[1])})
		}
	}
	if len(matches) == 1 {
		return matches[0].field, matches[0].value, nil
	}
	if len(matches) > 1 {
		return "", "", fmt.Errorf("ambiguous update %q: matches more than one field", rest)
	}

	// Bare status shorthand: "mark trip 7 completed"
	if allowed := nlBareStatuses[kind]; allowed != nil {
		word := strings.ToLower(strings.TrimSpace(rest))
		if allowed[word] {
			return "status", word, nil
		}
	}
	return "", "", fmt.Errorf("could not match %q to a supported field", rest)
}
