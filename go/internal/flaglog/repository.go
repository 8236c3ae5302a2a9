package flaglog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
)

type Repository struct {
	sqlDB *sql.DB
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		sqlDB: sqlDB,
	}
}

// AppendFlag inserts one flag row. The table is append-only: flags are
// never updated or deleted.
func (r *Repository) AppendFlag(ctx context.Context, flag models.FlagEvent) error {
	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO flag_events (id, regatta_id, race_number, flag_type, official, noted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		flag.ID, flag.RegattaID, flag.RaceNumber, flag.FlagType, flag.Official, flag.NotedAt)
	if err != nil {
		return fmt.Errorf("failed to append flag event: %w", err)
	}
	return nil
}

// ListFlagsByRace returns the flag history for one race number, oldest first.
func (r *Repository) ListFlagsByRace(ctx context.Context, regattaID uuid.UUID, raceNumber int) ([]models.FlagEvent, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
		SELECT id, regatta_id, race_number, flag_type, official, noted_at
		FROM flag_events
		WHERE regatta_id = $1 AND race_number = $2
		ORDER BY noted_at`, regattaID, raceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list flag events: %w", err)
	}
	defer rows.Close()

	var flags []models.FlagEvent
	for rows.Next() {
		var flag models.FlagEvent
		if err := rows.Scan(&flag.ID, &flag.RegattaID, &flag.RaceNumber, &flag.FlagType, &flag.Official, &flag.NotedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag event: %w", err)
		}
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}
