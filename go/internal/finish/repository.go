package finish

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
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

const recordColumns = `id, race_id, entry_id, position, finished_at, elapsed_sec, status, updated_at`

// CreateRecordsForStart inserts one RACING record per starting entry in a
// single batch. Called exactly once, on the countdown-to-racing transition.
func (r *Repository) CreateRecordsForStart(ctx context.Context, raceID uuid.UUID, entryIDs []uuid.UUID) error {
	if len(entryIDs) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(entryIDs))
	for i := range entryIDs {
		ids[i] = uuid.New()
	}

	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO finish_records (id, race_id, entry_id, status)
		SELECT unnest($1::uuid[]), $2, unnest($3::uuid[]), $4
		ON CONFLICT (race_id, entry_id) DO NOTHING`,
		pq.Array(ids), raceID, pq.Array(entryIDs), models.FinishStatusRacing)
	if err != nil {
		return fmt.Errorf("failed to batch create finish records: %w", err)
	}
	return nil
}

// AssignNextPosition gives the entry the next free finish position for its
// race. The race row is locked for the duration of the transaction, so
// concurrent submissions from several consoles are linearized by the store
// and positions come out gapless in acceptance order. The position counter
// only advances when the write commits.
func (r *Repository) AssignNextPosition(ctx context.Context, req RecordFinishRequest) (*models.FinishRecord, error) {
	var record *models.FinishRecord

	err := sqlutil.Run(ctx, r.sqlDB, func(tx *sql.Tx) error {
		var state models.SequenceState
		err := tx.QueryRowContext(ctx, `
			SELECT state FROM races WHERE id = $1 FOR UPDATE`, req.RaceID).Scan(&state)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to lock race row: %w", err)
		}
		if state != models.SequenceStateRacing {
			return ErrRaceNotRacing
		}

		var next int
		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position), 0) + 1 FROM finish_records WHERE race_id = $1`,
			req.RaceID).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to compute next position: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE finish_records
			SET position = $3, finished_at = $4, elapsed_sec = $5, status = $6, updated_at = NOW()
			WHERE race_id = $1 AND entry_id = $2 AND position IS NULL AND status = $7
			RETURNING `+recordColumns,
			req.RaceID, req.EntryID, next, req.FinishedAt, req.ElapsedSec,
			models.FinishStatusFinished, models.FinishStatusRacing)

		record, err = scanRecord(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.classifyRejection(ctx, tx, req.RaceID, req.EntryID)
			}
			return fmt.Errorf("failed to assign finish position: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// classifyRejection decides why the conditional position update matched no
// row, so the caller gets a precise rejection instead of a silent failure.
func (r *Repository) classifyRejection(ctx context.Context, tx *sql.Tx, raceID, entryID uuid.UUID) error {
	var position sql.NullInt32
	err := tx.QueryRowContext(ctx, `
		SELECT position FROM finish_records WHERE race_id = $1 AND entry_id = $2`,
		raceID, entryID).Scan(&position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to inspect finish record: %w", err)
	}
	if position.Valid {
		return ErrAlreadyFinished
	}
	return ErrEntryNotRacing
}

// UpsertStatus overwrites an entry's status without touching its position.
// The record is created on the fly when none exists yet (e.g. a DNS noted
// for a race whose countdown was abandoned).
func (r *Repository) UpsertStatus(ctx context.Context, raceID, entryID uuid.UUID, status models.FinishStatus) (*models.FinishRecord, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		INSERT INTO finish_records (id, race_id, entry_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (race_id, entry_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING `+recordColumns,
		uuid.New(), raceID, entryID, status)

	record, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert finish status: %w", err)
	}
	return record, nil
}

// GetRecord retrieves one entry's record for a race.
func (r *Repository) GetRecord(ctx context.Context, raceID, entryID uuid.UUID) (*models.FinishRecord, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM finish_records WHERE race_id = $1 AND entry_id = $2`,
		raceID, entryID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get finish record: %w", err)
	}
	return record, nil
}

// ListRecordsByRace returns every record for a race, finishers first in
// crossing order. Display order is always re-derived from these rows.
func (r *Repository) ListRecordsByRace(ctx context.Context, raceID uuid.UUID) ([]models.FinishRecord, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM finish_records
		WHERE race_id = $1
		ORDER BY position ASC NULLS LAST, entry_id`, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finish records: %w", err)
	}
	defer rows.Close()

	var records []models.FinishRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finish record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// CountFinished reports how many entries hold a position for the race.
func (r *Repository) CountFinished(ctx context.Context, raceID uuid.UUID) (int, error) {
	var count int
	err := r.sqlDB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM finish_records WHERE race_id = $1 AND position IS NOT NULL`,
		raceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count finished entries: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.FinishRecord, error) {
	var record models.FinishRecord
	var position, elapsed sql.NullInt32
	var finishedAt sql.NullTime
	err := row.Scan(
		&record.ID,
		&record.RaceID,
		&record.EntryID,
		&position,
		&finishedAt,
		&elapsed,
		&record.Status,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Position = sqlutil.FromSqlInt32(position)
	record.ElapsedSec = sqlutil.FromSqlInt32(elapsed)
	record.FinishedAt = sqlutil.FromSqlTime(finishedAt)
	return &record, nil
}
