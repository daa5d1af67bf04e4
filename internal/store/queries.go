package store

import (
	"database/sql"
	"fmt"
)

// TripDetails is the read model for a single trip.
type TripDetails struct {
	TripID              int64
	DriverID            int64
	VehicleID           int64
	Status              string
	StartTime           string
	EndTime             string
	TotalExpense        float64
	ExpenseCount        int
	LoadCount           int
	LocationUpdateCount int
}

// GetTripDetails returns trip details with expense/load/location rollups.
func (s *Store) GetTripDetails(tripID int64) (*TripDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := &TripDetails{TripID: tripID}
	var start, end sql.NullString
	err := s.db.QueryRow(
		`SELECT driver_id, vehicle_id, status, start_time, end_time FROM trips WHERE trip_id = ?`,
		tripID,
	).Scan(&d.DriverID, &d.VehicleID, &d.Status, &start, &end)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip with ID %d not found", tripID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip details: %w", err)
	}
	d.StartTime = start.String
	d.EndTime = end.String

	if err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses WHERE trip_id = ?`,
		tripID,
	).Scan(&d.TotalExpense, &d.ExpenseCount); err != nil {
		return nil, fmt.Errorf("failed to sum trip expenses: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM loads WHERE trip_id = ?`, tripID,
	).Scan(&d.LoadCount); err != nil {
		return nil, fmt.Errorf("failed to count trip loads: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM location_updates WHERE trip_id = ?`, tripID,
	).Scan(&d.LocationUpdateCount); err != nil {
		return nil, fmt.Errorf("failed to count location updates: %w", err)
	}
	return d, nil
}

// TripExpenses is the expense rollup for a trip.
type TripExpenses struct {
	TripID       int64
	TotalExpense float64
	ExpenseCount int
	Breakdown    map[string]float64
}

// GetTripExpenses returns the expense total and per-category breakdown
// for a trip.
func (s *Store) GetTripExpenses(tripID int64) (*TripExpenses, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.rowExists("trips", "trip_id", tripID); err != nil {
		return nil, fmt.Errorf("trip with ID %d not found", tripID)
	}
	te := &TripExpenses{TripID: tripID, Breakdown: make(map[string]float64)}
	rows, err := s.db.Query(
		`SELECT expense_type, amount FROM expenses WHERE trip_id = ?`, tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var amount float64
		if err := rows.Scan(&typ, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if typ == "" {
			typ = "uncategorized"
		}
		te.Breakdown[typ] += amount
		te.TotalExpense += amount
		te.ExpenseCount++
	}
	return te, rows.Err()
}

// VehicleSummary is the read model for a vehicle.
type VehicleSummary struct {
	VehicleID    int64
	OwnerID      int64
	LicensePlate string
	CapacityKG   float64
	Status       string
	TripCount    int
	TotalExpense float64
}

// GetVehicleSummary returns a vehicle with trip and expense rollups.
func (s *Store) GetVehicleSummary(vehicleID int64) (*VehicleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := &VehicleSummary{VehicleID: vehicleID}
	err := s.db.QueryRow(
		`SELECT owner_id, license_plate, capacity_kg, status FROM vehicles WHERE vehicle_id = ?`,
		vehicleID,
	).Scan(&v.OwnerID, &v.LicensePlate, &v.CapacityKG, &v.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vehicle with ID %d not found", vehicleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM trips WHERE vehicle_id = ?`, vehicleID,
	).Scan(&v.TripCount); err != nil {
		return nil, fmt.Errorf("failed to count vehicle trips: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COALESCE(SUM(e.amount), 0)
		 FROM expenses e JOIN trips t ON e.trip_id = t.trip_id
		 WHERE t.vehicle_id = ?`, vehicleID,
	).Scan(&v.TotalExpense); err != nil {
		return nil, fmt.Errorf("failed to sum vehicle expenses: %w", err)
	}
	return v, nil
}

// OwnerSummary is the read model for an owner.
type OwnerSummary struct {
	OwnerID      int64
	CompanyName  string
	VehicleCount int
	DriverCount  int
	TripCount    int
	TotalExpense float64
}

// GetOwnerSummary returns fleet-level rollups for an owner.
func (s *Store) GetOwnerSummary(ownerID int64) (*OwnerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := &OwnerSummary{OwnerID: ownerID}
	err := s.db.QueryRow(
		`SELECT company_name FROM owners WHERE owner_id = ?`, ownerID,
	).Scan(&o.CompanyName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("owner with ID %d not found", ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM vehicles WHERE owner_id = ?`, ownerID,
	).Scan(&o.VehicleCount); err != nil {
		return nil, fmt.Errorf("failed to count vehicles: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE owner_id = ? AND role = 'driver'`, ownerID,
	).Scan(&o.DriverCount); err != nil {
		return nil, fmt.Errorf("failed to count drivers: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM trips t JOIN vehicles v ON t.vehicle_id = v.vehicle_id
		 WHERE v.owner_id = ?`, ownerID,
	).Scan(&o.TripCount); err != nil {
		return nil, fmt.Errorf("failed to count trips: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COALESCE(SUM(e.amount), 0)
		 FROM expenses e
		 JOIN trips t ON e.trip_id = t.trip_id
		 JOIN vehicles v ON t.vehicle_id = v.vehicle_id
		 WHERE v.owner_id = ?`, ownerID,
	).Scan(&o.TotalExpense); err != nil {
		return nil, fmt.Errorf("failed to sum owner expenses: %w", err)
	}
	return o, nil
}

// LoadDetails is the read model for a load.
type LoadDetails struct {
	LoadID             int64
	CustomerID         int64
	PickupAddress      string
	DestinationAddress string
	WeightKG           float64
	Description        string
	Status             string
	TripID             int64 // 0 when unassigned
}

// GetLoadDetails returns a single load.
func (s *Store) GetLoadDetails(loadID int64) (*LoadDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := &LoadDetails{LoadID: loadID}
	var weight sql.NullFloat64
	var desc sql.NullString
	var tripID sql.NullInt64
	err := s.db.QueryRow(
		`SELECT customer_id, pickup_address, destination_address, weight_kg, description, status, trip_id
		 FROM loads WHERE load_id = ?`, loadID,
	).Scan(&l.CustomerID, &l.PickupAddress, &l.DestinationAddress, &weight, &desc, &l.Status, &tripID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load with ID %d not found", loadID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get load: %w", err)
	}
	l.WeightKG = weight.Float64
	l.Description = desc.String
	l.TripID = tripID.Int64
	return l, nil
}

// UserDetails is the read model for a user profile.
type UserDetails struct {
	UserID      int64
	OwnerID     int64
	FullName    string
	Email       string
	PhoneNumber string
	Role        string
}

// GetUserDetails returns a user profile by id.
func (s *Store) GetUserDetails(userID int64) (*UserDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := &UserDetails{UserID: userID}
	err := s.db.QueryRow(
		`SELECT owner_id, full_name, email, phone_number, role FROM users WHERE user_id = ?`,
		userID,
	).Scan(&u.OwnerID, &u.FullName, &u.Email, &u.PhoneNumber, &u.Role)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user with ID %d not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// DriverDetails is the read model for a driver profile with activity rollups.
type DriverDetails struct {
	UserDetails
	TripCount    int
	TotalExpense float64
}

// GetDriverDetails returns a driver profile with trip and expense rollups.
func (s *Store) GetDriverDetails(driverID int64) (*DriverDetails, error) {
	u, err := s.GetUserDetails(driverID)
	if err != nil {
		return nil, err
	}
	if u.Role != "driver" {
		return nil, fmt.Errorf("user %d is not a driver", driverID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d := &DriverDetails{UserDetails: *u}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM trips WHERE driver_id = ?`, driverID,
	).Scan(&d.TripCount); err != nil {
		return nil, fmt.Errorf("failed to count driver trips: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE driver_id = ?`, driverID,
	).Scan(&d.TotalExpense); err != nil {
		return nil, fmt.Errorf("failed to sum driver expenses: %w", err)
	}
	return d, nil
}

// UserExpenses is the expense rollup for a user (driver).
type UserExpenses struct {
	UserID       int64
	FullName     string
	TotalExpense float64
	ExpenseCount int
	Breakdown    map[string]float64
}

// GetUserExpenses returns the expense total and per-category breakdown
// for a user.
func (s *Store) GetUserExpenses(userID int64) (*UserExpenses, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ue := &UserExpenses{UserID: userID, Breakdown: make(map[string]float64)}
	err := s.db.QueryRow(
		`SELECT full_name FROM users WHERE user_id = ?`, userID,
	).Scan(&ue.FullName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user with ID %d not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT expense_type, amount FROM expenses WHERE driver_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var amount float64
		if err := rows.Scan(&typ, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if typ == "" {
			typ = "uncategorized"
		}
		ue.Breakdown[typ] += amount
		ue.TotalExpense += amount
		ue.ExpenseCount++
	}
	return ue, rows.Err()
}
