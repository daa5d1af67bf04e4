// Package authz enforces role-based allow-lists over pipeline intents.
//
// There is no authentication layer yet; "role" is a session-selected mode
// (customer/driver/owner) or the privileged whatsapp channel role. The
// allow-lists keep customer/driver sessions away from owner-only
// operations. Enforcement points are the query and mutation executors;
// both check defensively even when the router/planner already filtered.
package authz

import (
	"fmt"
	"strings"

	"fleetmind/internal/logging"
)

// Role is a coarse actor role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleOwner    Role = "owner"
	// RoleWhatsApp is the privileged channel role: the webhook runs
	// without per-user role selection and gets owner-equivalent access.
	RoleWhatsApp Role = "whatsapp"
)

// Normalize maps an arbitrary role string onto a known role. Unknown or
// empty input falls back to owner for backward compatibility; the
// fail-open default is logged so it is visible in audits.
func Normalize(role string) Role {
	r := strings.ToLower(strings.TrimSpace(role))
	switch Role(r) {
	case RoleCustomer, RoleDriver, RoleOwner, RoleWhatsApp:
		return Role(r)
	}
	if r != "" {
		logging.Get(logging.CategoryBoot).Warn("unrecognized actor role %q, defaulting to owner", role)
	}
	return RoleOwner
}

var customerIntents = map[string]bool{
	"chat":          true,
	"greeting":      true,
	"create_load":   true,
	"nl_update":     true,
	"load_details":  true,
	"user_details":  true,
	"register_user": true, // self-registration
}

var driverIntents = map[string]bool{
	"chat":                true,
	"greeting":            true,
	"register_user":       true,
	"driver_details":      true,
	"user_details":        true,
	"trip_details":        true,
	"trip_expenses":       true,
	"driver_expenses":     true,
	"user_expenses":       true,
	"add_expense":         true,
	"nl_update":           true,
	"add_location_update": true,
	"load_details":        true,
}

var ownerIntents = map[string]bool{
	"chat":                true,
	"greeting":            true,
	"register_owner":      true,
	"register_user":       true,
	"add_vehicle":         true,
	"add_trip":            true,
	"add_expense":         true,
	"create_load":         true,
	"assign_load_to_trip": true,
	"add_location_update": true,
	"nl_update":           true,
	"trip_details":        true,
	"trip_expenses":       true,
	"vehicle_summary":     true,
	"owner_summary":       true,
	"load_details":        true,
	"driver_details":      true,
	"user_details":        true,
	"driver_expenses":     true,
	"user_expenses":       true,
}

var roleIntents = map[Role]map[string]bool{
	RoleCustomer: customerIntents,
	RoleDriver:   driverIntents,
	RoleOwner:    ownerIntents,
	RoleWhatsApp: ownerIntents, // privileged channel, same surface as owner
}

// IsAllowed reports whether a role may run an intent. The payload is
// consulted for the register_user self-registration rule: a customer
// session may only register customers, a driver session only drivers
// (or leave the role for the executor to infer).
func IsAllowed(role Role, intent string, payload map[string]any) bool {
	i := strings.TrimSpace(intent)
	if i == "" {
		return true
	}

	allowed, ok := roleIntents[role]
	if !ok {
		allowed = ownerIntents
	}
	if !allowed[i] {
		return false
	}

	if role != RoleOwner && role != RoleWhatsApp && i == "register_user" && payload != nil {
		requested := strings.ToLower(strings.TrimSpace(stringValue(payload["role"])))
		switch role {
		case RoleCustomer:
			return requested == "" || requested == "customer"
		case RoleDriver:
			return requested == "" || requested == "driver"
		}
	}
	return true
}

// DenyMessage returns the user-facing denial text for a blocked intent.
func DenyMessage(role Role, intent string) string {
	i := strings.TrimSpace(intent)
	if i == "" {
		i = "(unknown)"
	}
	if i == "register_user" {
		switch role {
		case RoleDriver:
			return "Access denied: drivers can only register users with role=driver."
		case RoleCustomer:
			return "Access denied: customers can only register users with role=customer."
		}
	}
	return fmt.Sprintf("Access denied: '%s' is not available in %s mode.", i, role)
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
