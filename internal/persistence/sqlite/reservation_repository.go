package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/space-reservation/internal/persistence"
)

const reservationColumns = `
	id, space_id, start_time, end_time, member_id, guest_name, password_hash,
	description, created_at, updated_at
`

// ReservationRepository implements persistence.ReservationRepository using
// SQLite. Writes re-check overlap inside the same transaction that stores the
// row, so two concurrent requests cannot both book the same interval.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReservationRepository creates a new SQLite reservation repository
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateReservation stores a reservation unless it overlaps another one of the same space
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if err := validateReservationRecord(reservation); err != nil {
		return err
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.ensureNoOverlap(ctx, tx, reservation, ""); err != nil {
			return err
		}
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			reservation.ID,
			reservation.SpaceID,
			formatTimestamp(reservation.Start),
			formatTimestamp(reservation.End),
			nullableString(reservation.MemberID),
			nullableString(reservation.GuestName),
			nullableString(reservation.PasswordHash),
			reservation.Description,
			formatTimestamp(reservation.CreatedAt),
			formatTimestamp(reservation.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return nil
	})
}

// UpdateReservation rewrites the interval and description of a reservation.
// Ownership columns are never changed.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if err := validateReservationRecord(reservation); err != nil {
		return err
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.ensureNoOverlap(ctx, tx, reservation, reservation.ID); err != nil {
			return err
		}
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE reservations
			SET start_time = ?, end_time = ?, description = ?, updated_at = ?
			WHERE id = ? AND space_id = ?
		`,
			formatTimestamp(reservation.Start),
			formatTimestamp(reservation.End),
			reservation.Description,
			formatTimestamp(reservation.UpdatedAt),
			reservation.ID,
			reservation.SpaceID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// ensureNoOverlap reports ErrConflict when another reservation of the same
// space overlaps the half-open interval. excludeID skips the row being updated.
func (r *ReservationRepository) ensureNoOverlap(ctx context.Context, tx *sql.Tx, reservation persistence.Reservation, excludeID string) error {
	query := `
		SELECT id FROM reservations
		WHERE space_id = ? AND start_time < ? AND end_time > ?
	`
	args := []any{
		reservation.SpaceID,
		formatTimestamp(reservation.End),
		formatTimestamp(reservation.Start),
	}
	if excludeID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`

	var existingID string
	err := r.helper.QueryRowTx(ctx, tx, query, args...).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return r.mapper.MapError(err)
	default:
		return fmt.Errorf("%w: overlaps reservation %s", persistence.ErrConflict, existingID)
	}
}

// GetReservation retrieves a reservation by ID
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter ordered by start then ID
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.SpaceID != "" {
		conditions = append(conditions, "space_id = ?")
		args = append(args, filter.SpaceID)
	}
	if filter.MemberID != "" {
		conditions = append(conditions, "member_id = ?")
		args = append(args, filter.MemberID)
	}
	if filter.GuestName != "" {
		conditions = append(conditions, "member_id IS NULL AND guest_name = ?")
		args = append(args, filter.GuestName)
	}
	if filter.To != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTimestamp(*filter.To))
	}
	if filter.From != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTimestamp(*filter.From))
	}
	if filter.EndsAtOrAfter != nil {
		conditions = append(conditions, "end_time >= ?")
		args = append(args, formatTimestamp(*filter.EndsAtOrAfter))
	}
	if filter.EndsAtOrBefore != nil {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, formatTimestamp(*filter.EndsAtOrBefore))
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	if filter.Descending {
		query += ` ORDER BY start_time DESC, id DESC`
	} else {
		query += ` ORDER BY start_time ASC, id ASC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reservations, nil
}

// DeleteReservation removes a reservation by ID
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ExistsEndingAfter reports whether the space has a reservation ending after reference
func (r *ReservationRepository) ExistsEndingAfter(ctx context.Context, spaceID string, reference time.Time) (bool, error) {
	var exists int
	err := r.helper.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations WHERE space_id = ? AND end_time > ?
		)
	`, spaceID, formatTimestamp(reference)).Scan(&exists)
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	return exists == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation                   persistence.Reservation
		start, end                    string
		memberID, guestName, password sql.NullString
		createdAt, updatedAt          string
	)
	if err := row.Scan(
		&reservation.ID,
		&reservation.SpaceID,
		&start,
		&end,
		&memberID,
		&guestName,
		&password,
		&reservation.Description,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	var err error
	if reservation.Start, err = parseTimestamp("start_time", start); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.End, err = parseTimestamp("end_time", end); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	reservation.MemberID = stringPointer(memberID)
	reservation.GuestName = stringPointer(guestName)
	reservation.PasswordHash = stringPointer(password)
	return reservation, nil
}

func validateReservationRecord(reservation persistence.Reservation) error {
	if reservation.ID == "" || reservation.SpaceID == "" {
		return persistence.ErrConstraintViolation
	}
	if !reservation.Start.Before(reservation.End) {
		return persistence.ErrConstraintViolation
	}
	if (reservation.MemberID == nil) == (reservation.GuestName == nil) {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPointer(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
