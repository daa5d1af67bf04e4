package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, RoleCustomer, Normalize("customer"))
	assert.Equal(t, RoleDriver, Normalize(" Driver "))
	assert.Equal(t, RoleWhatsApp, Normalize("whatsapp"))
	assert.Equal(t, RoleOwner, Normalize(""))
	assert.Equal(t, RoleOwner, Normalize("superadmin"))
}

func TestIsAllowed(t *testing.T) {
	cases := []struct {
		role   Role
		intent string
		want   bool
	}{
		{RoleCustomer, "create_load", true},
		{RoleCustomer, "load_details", true},
		{RoleCustomer, "add_vehicle", false},
		{RoleCustomer, "owner_summary", false},
		{RoleDriver, "add_expense", true},
		{RoleDriver, "trip_details", true},
		{RoleDriver, "add_location_update", true},
		{RoleDriver, "assign_load_to_trip", false},
		{RoleDriver, "register_owner", false},
		{RoleOwner, "add_vehicle", true},
		{RoleOwner, "owner_summary", true},
		{RoleWhatsApp, "assign_load_to_trip", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsAllowed(tc.role, tc.intent, nil),
			"role=%s intent=%s", tc.role, tc.intent)
	}

	// Empty intent passes through; dispatch rejects it later.
	assert.True(t, IsAllowed(RoleCustomer, "", nil))
}

func TestRegisterUserSelfRegistration(t *testing.T) {
	assert.True(t, IsAllowed(RoleCustomer, "register_user", map[string]any{"role": "customer"}))
	assert.True(t, IsAllowed(RoleCustomer, "register_user", map[string]any{}))
	assert.False(t, IsAllowed(RoleCustomer, "register_user", map[string]any{"role": "driver"}))

	assert.True(t, IsAllowed(RoleDriver, "register_user", map[string]any{"role": "Driver"}))
	assert.False(t, IsAllowed(RoleDriver, "register_user", map[string]any{"role": "owner"}))

	// Owners register anyone.
	assert.True(t, IsAllowed(RoleOwner, "register_user", map[string]any{"role": "owner"}))
}

func TestDenyMessage(t *testing.T) {
	assert.Equal(t,
		"Access denied: 'add_vehicle' is not available in customer mode.",
		DenyMessage(RoleCustomer, "add_vehicle"))
	assert.Contains(t, DenyMessage(RoleDriver, "register_user"), "role=driver")
	assert.Contains(t, DenyMessage(RoleCustomer, "register_user"), "role=customer")
}
