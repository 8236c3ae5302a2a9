package race

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/sqlutil"
)

type Repository struct {
	sqlDB *sql.DB
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		sqlDB: sqlDB,
	}
}

const raceColumns = `id, regatta_id, race_number, sequence_type, state, countdown_ends_at, started_at, finished_at, created_at, updated_at`

func (r *Repository) CreateRace(ctx context.Context, req CreateRaceRequest) (*models.Race, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		INSERT INTO races (id, regatta_id, race_number, sequence_type, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+raceColumns,
		req.ID, req.RegattaID, req.RaceNumber, req.SequenceType, models.SequenceStateIdle,
	)

	race, err := scanRace(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create race: %w", err)
	}
	return race, nil
}

func (r *Repository) GetRace(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		SELECT `+raceColumns+` FROM races WHERE id = $1`, id)

	race, err := scanRace(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	return race, nil
}

func (r *Repository) GetRaceByNumber(ctx context.Context, regattaID uuid.UUID, raceNumber int) (*models.Race, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		SELECT `+raceColumns+` FROM races WHERE regatta_id = $1 AND race_number = $2`,
		regattaID, raceNumber)

	race, err := scanRace(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get race by number: %w", err)
	}
	return race, nil
}

func (r *Repository) ListRacesByRegatta(ctx context.Context, regattaID uuid.UUID) ([]models.Race, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
		SELECT `+raceColumns+` FROM races WHERE regatta_id = $1 ORDER BY race_number`, regattaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	defer rows.Close()

	var races []models.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		races = append(races, *race)
	}
	return races, rows.Err()
}

// BeginCountdown moves an idle race into countdown with the chosen
// configuration and persists the start deadline, so a restarted console can
// recompute remaining time. The state guard makes the transition race-safe
// across consoles.
func (r *Repository) BeginCountdown(ctx context.Context, id uuid.UUID, sequenceType models.SequenceType, endsAt time.Time) error {
	result, err := r.sqlDB.ExecContext(ctx, `
		UPDATE races
		SET sequence_type = $2, state = $3, countdown_ends_at = $4, started_at = NULL, finished_at = NULL, updated_at = NOW()
		WHERE id = $1 AND state = $5`,
		id, sequenceType, models.SequenceStateCountdown, endsAt, models.SequenceStateIdle)
	if err != nil {
		return fmt.Errorf("failed to begin countdown: %w", err)
	}
	return requireOneRow(result, "race not idle")
}

// MarkRacing records the authoritative start instant. The countdown guard
// means a start instant, once set, is never overwritten for this run.
func (r *Repository) MarkRacing(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	result, err := r.sqlDB.ExecContext(ctx, `
		UPDATE races
		SET state = $2, started_at = $3, countdown_ends_at = NULL, updated_at = NOW()
		WHERE id = $1 AND state = $4 AND started_at IS NULL`,
		id, models.SequenceStateRacing, startedAt, models.SequenceStateCountdown)
	if err != nil {
		return fmt.Errorf("failed to mark race racing: %w", err)
	}
	return requireOneRow(result, "race not in countdown")
}

// AbortCountdown returns a countdown race to idle (postponement or general
// recall). No start instant exists yet, so nothing else is touched.
func (r *Repository) AbortCountdown(ctx context.Context, id uuid.UUID) error {
	result, err := r.sqlDB.ExecContext(ctx, `
		UPDATE races
		SET state = $2, countdown_ends_at = NULL, updated_at = NOW()
		WHERE id = $1 AND state = $3`,
		id, models.SequenceStateIdle, models.SequenceStateCountdown)
	if err != nil {
		return fmt.Errorf("failed to abort countdown: %w", err)
	}
	return requireOneRow(result, "race not in countdown")
}

// MarkFinished freezes a racing race.
func (r *Repository) MarkFinished(ctx context.Context, id uuid.UUID, finishedAt time.Time) error {
	result, err := r.sqlDB.ExecContext(ctx, `
		UPDATE races
		SET state = $2, finished_at = $3, updated_at = NOW()
		WHERE id = $1 AND state = $4`,
		id, models.SequenceStateFinished, finishedAt, models.SequenceStateRacing)
	if err != nil {
		return fmt.Errorf("failed to mark race finished: %w", err)
	}
	return requireOneRow(result, "race not racing")
}

func requireOneRow(result sql.Result, reason string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected count: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", reason, ErrInvalidTransition)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRace(row rowScanner) (*models.Race, error) {
	var race models.Race
	var endsAt, startedAt, finishedAt sql.NullTime
	err := row.Scan(
		&race.ID,
		&race.RegattaID,
		&race.RaceNumber,
		&race.SequenceType,
		&race.State,
		&endsAt,
		&startedAt,
		&finishedAt,
		&race.CreatedAt,
		&race.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	race.CountdownEndsAt = sqlutil.FromSqlTime(endsAt)
	race.StartedAt = sqlutil.FromSqlTime(startedAt)
	race.FinishedAt = sqlutil.FromSqlTime(finishedAt)
	return &race, nil
}
