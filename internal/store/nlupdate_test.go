package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNLUpdatePhoneChange(t *testing.T) {
	s := newTestStore(t)
	_, driverID, _, _, _ := seedFleet(t, s)

	res, err := s.NLUpdate("change driver 1 phone 9999988888")
	require.NoError(t, err)
	assert.Equal(t, "driver", res.Entity)
	assert.Equal(t, driverID, res.ID)
	assert.Equal(t, "phone_number", res.Field)
	assert.Equal(t, "9999988888", res.Value)

	u, err := s.GetUserDetails(driverID)
	require.NoError(t, err)
	assert.Equal(t, "9999988888", u.PhoneNumber)
}

func TestNLUpdateBareStatus(t *testing.T) {
	s := newTestStore(t)
	_, _, _, _, tripID := seedFleet(t, s)

	res, err := s.NLUpdate("mark trip 1 completed")
	require.NoError(t, err)
	assert.Equal(t, "status", res.Field)
	assert.Equal(t, "completed", res.Value)

	d, err := s.GetTripDetails(tripID)
	require.NoError(t, err)
	assert.Equal(t, "completed", d.Status)
}

func TestNLUpdateVehicleStatusAndCapacity(t *testing.T) {
	s := newTestStore(t)
	_, _, _, vehicleID, _ := seedFleet(t, s)

	_, err := s.NLUpdate("set vehicle 1 status maintenance")
	require.NoError(t, err)

	_, err = s.NLUpdate("update vehicle 1 capacity 7500")
	require.NoError(t, err)

	v, err := s.GetVehicleSummary(vehicleID)
	require.NoError(t, err)
	assert.Equal(t, "maintenance", v.Status)
	assert.Equal(t, 7500.0, v.CapacityKG)
}

func TestNLUpdateRejections(t *testing.T) {
	s := newTestStore(t)
	seedFleet(t, s)

	cases := []struct {
		name string
		text string
		want string
	}{
		{"no entity", "change the phone number please", "could not identify"},
		{"no field", "change driver 2", "no field given"},
		{"unknown field", "set vehicle 1 color red", "could not match"},
		{"invalid status", "set trip 1 status flying", "invalid trip status"},
		{"missing row", "mark trip 99 completed", "trip with ID 99 not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.NLUpdate(tc.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
