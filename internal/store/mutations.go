package store

import (
	"fmt"

	"fleetmind/internal/logging"
)

// OwnerParams holds the fields for owner registration.
type OwnerParams struct {
	CompanyName     string
	BusinessAddress string
	ContactEmail    string
	GSTNumber       string
}

// RegisterOwner creates a new owner record and returns its id.
func (s *Store) RegisterOwner(p OwnerParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO owners (company_name, business_address, contact_email, gst_number)
		 VALUES (?, ?, ?, ?)`,
		p.CompanyName, p.BusinessAddress, p.ContactEmail, nullable(p.GSTNumber),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to register owner: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read owner id: %w", err)
	}
	logging.Store("registered owner %d (%s)", id, p.CompanyName)
	return id, nil
}

// UserParams holds the fields for user registration.
type UserParams struct {
	OwnerID      int64
	FullName     string
	Email        string
	PasswordHash string
	PhoneNumber  string
	Role         string // customer | driver | owner
}

// RegisterUser creates a new user record and returns its id.
// The referenced owner must exist.
func (s *Store) RegisterUser(p UserParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rowExists("owners", "owner_id", p.OwnerID); err != nil {
		return 0, fmt.Errorf("owner with ID %d not found", p.OwnerID)
	}
	res, err := s.db.Exec(
		`INSERT INTO users (owner_id, full_name, email, password_hash, phone_number, role)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.OwnerID, p.FullName, p.Email, p.PasswordHash, p.PhoneNumber, p.Role,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to register user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}
	logging.Store("registered user %d (%s, role=%s)", id, p.FullName, p.Role)
	return id, nil
}

// VehicleParams holds the fields for adding a vehicle.
type VehicleParams struct {
	OwnerID      int64
	LicensePlate string
	CapacityKG   float64
	Status       string
}

// AddVehicle creates a new vehicle record and returns its id.
func (s *Store) AddVehicle(p VehicleParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rowExists("owners", "owner_id", p.OwnerID); err != nil {
		return 0, fmt.Errorf("owner with ID %d not found", p.OwnerID)
	}
	status := p.Status
	if status == "" {
		status = "available"
	}
	res, err := s.db.Exec(
		`INSERT INTO vehicles (owner_id, license_plate, capacity_kg, status)
		 VALUES (?, ?, ?, ?)`,
		p.OwnerID, p.LicensePlate, p.CapacityKG, status,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add vehicle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read vehicle id: %w", err)
	}
	logging.Store("added vehicle %d (%s)", id, p.LicensePlate)
	return id, nil
}

// TripParams holds the fields for trip creation.
type TripParams struct {
	DriverID  int64
	VehicleID int64
	Status    string
	StartTime string
	EndTime   string
}

// AddTrip creates a new trip record and returns its id.
func (s *Store) AddTrip(p TripParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rowExists("users", "user_id", p.DriverID); err != nil {
		return 0, fmt.Errorf("driver with ID %d not found", p.DriverID)
	}
	if err := s.rowExists("vehicles", "vehicle_id", p.VehicleID); err != nil {
		return 0, fmt.Errorf("vehicle with ID %d not found", p.VehicleID)
	}
	status := p.Status
	if status == "" {
		status = "scheduled"
	}
	res, err := s.db.Exec(
		`INSERT INTO trips (driver_id, vehicle_id, status, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?)`,
		p.DriverID, p.VehicleID, status, nullable(p.StartTime), nullable(p.EndTime),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add trip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read trip id: %w", err)
	}
	logging.Store("added trip %d (driver=%d vehicle=%d)", id, p.DriverID, p.VehicleID)
	return id, nil
}

// ExpenseParams holds the fields for expense recording.
type ExpenseParams struct {
	DriverID    int64
	TripID      int64 // 0 means no trip
	Amount      float64
	ExpenseType string
	Description string
	ReceiptURL  string
}

// AddExpense creates a new expense record and returns its id.
// The amount must be positive.
func (s *Store) AddExpense(p ExpenseParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Amount <= 0 {
		return 0, fmt.Errorf("valid amount is required for expense")
	}
	if err := s.rowExists("users", "user_id", p.DriverID); err != nil {
		return 0, fmt.Errorf("driver with ID %d not found", p.DriverID)
	}
	res, err := s.db.Exec(
		`INSERT INTO expenses (driver_id, trip_id, amount, expense_type, description, receipt_url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.DriverID, nullableID(p.TripID), p.Amount, p.ExpenseType,
		nullable(p.Description), nullable(p.ReceiptURL),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read expense id: %w", err)
	}
	logging.Store("added expense %d (driver=%d amount=%.2f type=%s)", id, p.DriverID, p.Amount, p.ExpenseType)
	return id, nil
}

// LoadParams holds the fields for load creation.
type LoadParams struct {
	CustomerID         int64
	PickupAddress      string
	DestinationAddress string
	WeightKG           float64 // 0 means not provided
	Description        string
	Status             string
}

// CreateLoad creates a new load record and returns its id.
func (s *Store) CreateLoad(p LoadParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rowExists("users", "user_id", p.CustomerID); err != nil {
		return 0, fmt.Errorf("customer with ID %d not found", p.CustomerID)
	}
	status := p.Status
	if status == "" {
		status = "pending"
	}
	var weight any
	if p.WeightKG > 0 {
		weight = p.WeightKG
	}
	res, err := s.db.Exec(
		`INSERT INTO loads (customer_id, pickup_address, destination_address, weight_kg, description, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.CustomerID, p.PickupAddress, p.DestinationAddress, weight,
		nullable(p.Description), status,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create load: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read load id: %w", err)
	}
	logging.Store("created load %d (customer=%d)", id, p.CustomerID)
	return id, nil
}

// AssignLoadToTrip attaches an existing load to an existing trip and
// marks the load assigned.
func (s *Store) AssignLoadToTrip(loadID, tripID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rowExists("loads", "load_id", loadID); err != nil {
		return fmt.Errorf("load with ID %d not found", loadID)
	}
	if err := s.rowExists("trips", "trip_id", tripID); err != nil {
		return fmt.Errorf("trip with ID %d not found", tripID)
	}
	if _, err := s.db.Exec(
		`UPDATE loads SET trip_id = ?, status = 'assigned' WHERE load_id = ?`,
		tripID, loadID,
	); err != nil {
		return fmt.Errorf("failed to assign load: %w", err)
	}
	logging.Store("assigned load %d to trip %d", loadID, tripID)
	return nil
}

// LocationParams holds the fields for a trip location update.
type LocationParams struct {
	TripID    int64
	Latitude  float64
	Longitude float64
	SpeedKMH  float64 // 0 means not provided
	Address   string
}

// AddLocationUpdate records a GPS ping for a trip and returns its id.
func (s *Store) AddLocationUpdate(p LocationParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rowExists("trips", "trip_id", p.TripID); err != nil {
		return 0, fmt.Errorf("trip with ID %d not found", p.TripID)
	}
	var speed any
	if p.SpeedKMH > 0 {
		speed = p.SpeedKMH
	}
	res, err := s.db.Exec(
		`INSERT INTO location_updates (trip_id, latitude, longitude, speed_kmh, address)
		 VALUES (?, ?, ?, ?, ?)`,
		p.TripID, p.Latitude, p.Longitude, speed, nullable(p.Address),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add location update: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read location id: %w", err)
	}
	logging.Store("added location update %d (trip=%d)", id, p.TripID)
	return id, nil
}

// rowExists verifies a row with the given id exists. Caller must hold the lock.
func (s *Store) rowExists(table, column string, id int64) error {
	var one int
	// table/column come from fixed call sites, never user input.
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", table, column)
	if err := s.db.QueryRow(q, id).Scan(&one); err != nil {
		return ErrNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
