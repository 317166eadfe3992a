package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/space-reservation/internal/persistence"
)

const spaceColumns = `id, name, description, reservation_enabled, timezone, created_at, updated_at`

// SpaceRepository implements persistence.SpaceRepository using SQLite.
// A space and its settings are always written in one transaction.
type SpaceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSpaceRepository creates a new SQLite space repository
func NewSpaceRepository(pool *ConnectionPool) *SpaceRepository {
	return &SpaceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSpace inserts a space and its settings
func (r *SpaceRepository) CreateSpace(ctx context.Context, space persistence.Space) error {
	if space.ID == "" || space.Name == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO spaces (id, name, description, reservation_enabled, timezone, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			space.ID,
			space.Name,
			space.Description,
			boolToInt(space.ReservationEnabled),
			nullableString(space.Timezone),
			formatTimestamp(space.CreatedAt),
			formatTimestamp(space.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertSettings(ctx, tx, space.ID, space.Settings)
	})
}

// UpdateSpace overwrites a space and replaces its whole settings list
func (r *SpaceRepository) UpdateSpace(ctx context.Context, space persistence.Space) error {
	if space.ID == "" || space.Name == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE spaces
			SET name = ?, description = ?, reservation_enabled = ?, timezone = ?, updated_at = ?
			WHERE id = ?
		`,
			space.Name,
			space.Description,
			boolToInt(space.ReservationEnabled),
			nullableString(space.Timezone),
			formatTimestamp(space.UpdatedAt),
			space.ID,
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

		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM settings WHERE space_id = ?`, space.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertSettings(ctx, tx, space.ID, space.Settings)
	})
}

func (r *SpaceRepository) insertSettings(ctx context.Context, tx *sql.Tx, spaceID string, settings []persistence.Setting) error {
	const query = `
		INSERT INTO settings (
			space_id, priority_order, start_time, end_time, weekdays,
			time_unit_minutes, minimum_minutes, maximum_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, setting := range settings {
		_, err := r.helper.ExecTx(ctx, tx, query,
			spaceID,
			setting.PriorityOrder,
			setting.StartTime,
			setting.EndTime,
			setting.Weekdays,
			setting.TimeUnitMinutes,
			setting.MinimumMinutes,
			setting.MaximumMinutes,
		)
		if err != nil {
			return fmt.Errorf("insert setting %d: %w", setting.PriorityOrder, r.mapper.MapError(err))
		}
	}
	return nil
}

// GetSpace retrieves a space and its settings ordered by priority
func (r *SpaceRepository) GetSpace(ctx context.Context, id string) (persistence.Space, error) {
	if id == "" {
		return persistence.Space{}, persistence.ErrNotFound
	}

	var (
		space                persistence.Space
		enabled              int
		timezone             sql.NullString
		createdAt, updatedAt string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT `+spaceColumns+`
		FROM spaces
		WHERE id = ?
	`, id).Scan(&space.ID, &space.Name, &space.Description, &enabled, &timezone, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Space{}, r.mapper.MapError(err)
	}
	if err := fillSpace(&space, enabled, timezone, createdAt, updatedAt); err != nil {
		return persistence.Space{}, err
	}

	settings, err := r.listSettings(ctx, id)
	if err != nil {
		return persistence.Space{}, err
	}
	space.Settings = settings[id]
	return space, nil
}

// ListSpaces returns all spaces ordered by name then ID
func (r *SpaceRepository) ListSpaces(ctx context.Context) ([]persistence.Space, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT `+spaceColumns+`
		FROM spaces
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var spaces []persistence.Space
	for rows.Next() {
		var (
			space                persistence.Space
			enabled              int
			timezone             sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&space.ID, &space.Name, &space.Description, &enabled, &timezone, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if err := fillSpace(&space, enabled, timezone, createdAt, updatedAt); err != nil {
			return nil, err
		}
		spaces = append(spaces, space)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	settings, err := r.listSettings(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range spaces {
		spaces[i].Settings = settings[spaces[i].ID]
	}
	return spaces, nil
}

// listSettings groups settings by space. An empty spaceID loads every space.
func (r *SpaceRepository) listSettings(ctx context.Context, spaceID string) (map[string][]persistence.Setting, error) {
	query := `
		SELECT space_id, priority_order, start_time, end_time, weekdays,
		       time_unit_minutes, minimum_minutes, maximum_minutes
		FROM settings
	`
	var args []any
	if spaceID != "" {
		query += ` WHERE space_id = ?`
		args = append(args, spaceID)
	}
	query += ` ORDER BY space_id ASC, priority_order ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	grouped := make(map[string][]persistence.Setting)
	for rows.Next() {
		var setting persistence.Setting
		if err := rows.Scan(
			&setting.SpaceID,
			&setting.PriorityOrder,
			&setting.StartTime,
			&setting.EndTime,
			&setting.Weekdays,
			&setting.TimeUnitMinutes,
			&setting.MinimumMinutes,
			&setting.MaximumMinutes,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		grouped[setting.SpaceID] = append(grouped[setting.SpaceID], setting)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return grouped, nil
}

// DeleteSpace removes a space. Settings and past reservations cascade.
func (r *SpaceRepository) DeleteSpace(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM spaces WHERE id = ?`, id)
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

func fillSpace(space *persistence.Space, enabled int, timezone sql.NullString, createdAt, updatedAt string) error {
	var err error
	space.ReservationEnabled = enabled != 0
	space.Timezone = stringPointer(timezone)
	if space.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return err
	}
	if space.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return err
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
