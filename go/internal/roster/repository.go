package roster

import (
	"context"
	"database/sql"
	"errors"
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

const entryColumns = `id, regatta_id, sail_number, boat_name, class_name, eligible, created_at`

func (r *Repository) UpsertEntry(ctx context.Context, entry models.Entry) (*models.Entry, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		INSERT INTO entries (id, regatta_id, sail_number, boat_name, class_name, eligible)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (regatta_id, sail_number)
		DO UPDATE SET boat_name = EXCLUDED.boat_name, class_name = EXCLUDED.class_name, eligible = EXCLUDED.eligible
		RETURNING `+entryColumns,
		entry.ID, entry.RegattaID, entry.SailNumber, entry.BoatName, entry.ClassName, entry.Eligible)

	out, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return out, nil
}

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// GetEntryBySailNumber looks an entry up by its sail number within a
// regatta. Sail numbers are unique per regatta.
func (r *Repository) GetEntryBySailNumber(ctx context.Context, regattaID uuid.UUID, sailNumber string) (*models.Entry, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM entries WHERE regatta_id = $1 AND sail_number = $2`,
		regattaID, sailNumber)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry by sail number: %w", err)
	}
	return entry, nil
}

// ListEligibleEntries returns the entries that may start a race for the
// regatta, in sail-number order.
func (r *Repository) ListEligibleEntries(ctx context.Context, regattaID uuid.UUID) ([]models.Entry, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE regatta_id = $1 AND eligible
		ORDER BY sail_number`, regattaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var entry models.Entry
	err := row.Scan(
		&entry.ID,
		&entry.RegattaID,
		&entry.SailNumber,
		&entry.BoatName,
		&entry.ClassName,
		&entry.Eligible,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
