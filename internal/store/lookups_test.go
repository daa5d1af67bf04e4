package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerIDByName(t *testing.T) {
	s := newTestStore(t)
	ownerID, _, _, _, _ := seedFleet(t, s)

	id, err := s.OwnerIDByName("sharma logistics")
	require.NoError(t, err)
	assert.Equal(t, ownerID, id)

	_, err = s.OwnerIDByName("Unknown Corp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserIDByHintsPriority(t *testing.T) {
	s := newTestStore(t)
	ownerID, driverID, customerID, _, _ := seedFleet(t, s)

	// Second driver sharing the first's name but with a distinct email.
	otherID, err := s.RegisterUser(UserParams{
		OwnerID: ownerID, FullName: "Ravi Kumar", Email: "ravi2@sharma.example",
		PasswordHash: "x", PhoneNumber: "9000000000", Role: "driver",
	})
	require.NoError(t, err)

	// Email outranks name.
	id, err := s.UserIDByHints("driver", UserHints{Email: "RAVI2@sharma.example", FullName: "Ravi Kumar"})
	require.NoError(t, err)
	assert.Equal(t, otherID, id)

	// Phone outranks name.
	id, err = s.UserIDByHints("driver", UserHints{Phone: "9876543210", FullName: "Ravi Kumar"})
	require.NoError(t, err)
	assert.Equal(t, driverID, id)

	// Name alone, case-insensitive.
	id, err = s.UserIDByHints("customer", UserHints{FullName: "anita shah"})
	require.NoError(t, err)
	assert.Equal(t, customerID, id)

	// Unpinned role prefers drivers over customers.
	id, err = s.UserIDByHints("", UserHints{FullName: "Ravi Kumar"})
	require.NoError(t, err)
	assert.Equal(t, driverID, id)

	_, err = s.UserIDByHints("driver", UserHints{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVehicleIDByPlate(t *testing.T) {
	s := newTestStore(t)
	_, _, _, vehicleID, _ := seedFleet(t, s)

	id, err := s.VehicleIDByPlate("mh01ab1234")
	require.NoError(t, err)
	assert.Equal(t, vehicleID, id)

	_, err = s.VehicleIDByPlate("XX99ZZ0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSingleOwnerID(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.SingleOwnerID()
	require.NoError(t, err)
	assert.False(t, ok)

	ownerID, err := s.RegisterOwner(OwnerParams{
		CompanyName: "Solo Freight", BusinessAddress: "Pune", ContactEmail: "solo@example.com",
	})
	require.NoError(t, err)

	id, ok, err := s.SingleOwnerID()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ownerID, id)

	_, err = s.RegisterOwner(OwnerParams{
		CompanyName: "Second Freight", BusinessAddress: "Nashik", ContactEmail: "second@example.com",
	})
	require.NoError(t, err)

	_, ok, err = s.SingleOwnerID()
	require.NoError(t, err)
	assert.False(t, ok)
}
