package store

import (
	"database/sql"
	"fmt"

	"fleetmind/internal/logging"
)

// Alternate-key lookups used by the entity resolver. These never invent
// identifiers: a miss is always ErrNotFound.

// OwnerIDByName resolves an owner id by case-insensitive exact match on
// the company name.
func (s *Store) OwnerIDByName(name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id int64
	err := s.db.QueryRow(
		`SELECT owner_id FROM owners WHERE lower(company_name) = lower(?)`, name,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("owner lookup failed: %w", err)
	}
	return id, nil
}

// UserHints carries the fuzzy person hints the resolver may have.
type UserHints struct {
	Email    string
	Phone    string
	FullName string
}

// UserIDByHints resolves a user id for the given role using, in priority
// order: exact case-insensitive email, exact phone, exact
// case-insensitive full name. An empty role tries drivers first, then
// customers.
func (s *Store) UserIDByHints(role string, h UserHints) (int64, error) {
	if role != "" {
		return s.userIDByHintsRole(role, h)
	}
	if id, err := s.userIDByHintsRole("driver", h); err == nil {
		return id, nil
	}
	return s.userIDByHintsRole("customer", h)
}

func (s *Store) userIDByHintsRole(role string, h UserHints) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id int64
	if h.Email != "" {
		err := s.db.QueryRow(
			`SELECT user_id FROM users WHERE role = ? AND lower(email) = lower(?)`,
			role, h.Email,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("user lookup failed: %w", err)
		}
	}
	if h.Phone != "" {
		err := s.db.QueryRow(
			`SELECT user_id FROM users WHERE role = ? AND phone_number = ?`,
			role, h.Phone,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("user lookup failed: %w", err)
		}
	}
	if h.FullName != "" {
		err := s.db.QueryRow(
			`SELECT user_id FROM users WHERE role = ? AND lower(full_name) = lower(?)`,
			role, h.FullName,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("user lookup failed: %w", err)
		}
	}
	logging.Resolve("no %s matched hints email=%q phone=%q name=%q", role, h.Email, h.Phone, h.FullName)
	return 0, ErrNotFound
}

// VehicleIDByPlate resolves a vehicle id by case-insensitive exact match
// on the license plate.
func (s *Store) VehicleIDByPlate(plate string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id int64
	err := s.db.QueryRow(
		`SELECT vehicle_id FROM vehicles WHERE lower(license_plate) = lower(?)`, plate,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("vehicle lookup failed: %w", err)
	}
	return id, nil
}

// SingleOwnerID returns the only owner's id when exactly one owner
// record exists; ok is false otherwise. Used by register_user owner
// auto-pick.
func (s *Store) SingleOwnerID() (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT owner_id FROM owners LIMIT 2`)
	if err != nil {
		return 0, false, fmt.Errorf("owner count failed: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, false, fmt.Errorf("owner count failed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, false, err
	}
	if len(ids) == 1 {
		return ids[0], true, nil
	}
	return 0, false, nil
}
