package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

func (r *Repository) insertEvent(ctx context.Context, raceID uuid.UUID, eventType string, payload []byte) error {
	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO outbox (id, race_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), raceID, eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

func (r *Repository) InsertOutboxRaceStarted(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return r.insertEvent(ctx, raceID, EventTypeRaceStarted, payload)
}

func (r *Repository) InsertOutboxSequencePostponed(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return r.insertEvent(ctx, raceID, EventTypeSequencePostponed, payload)
}

func (r *Repository) InsertOutboxGeneralRecall(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return r.insertEvent(ctx, raceID, EventTypeGeneralRecall, payload)
}

func (r *Repository) InsertOutboxRaceFinished(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return r.insertEvent(ctx, raceID, EventTypeRaceFinished, payload)
}

func (r *Repository) InsertOutboxFinishRecorded(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return r.insertEvent(ctx, raceID, EventTypeFinishRecorded, payload)
}

func (r *Repository) InsertOutboxStatusAssigned(ctx context.Context, raceID uuid.UUID, payload []byte) error {
	return r.insertEvent(ctx, raceID, EventTypeStatusAssigned, payload)
}

// FetchUnsentOutbox claims up to limit unsent events, oldest first. Rows are
// locked with SKIP LOCKED so multiple relay workers never double-publish.
func (r *Repository) FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	var events []OutboxEvent

	err := sqlutil.Run(ctx, r.sqlDB, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, race_id, event_type, payload, created_at
			FROM outbox
			WHERE sent_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, limit)
		if err != nil {
			return fmt.Errorf("failed to fetch unsent outbox events: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var event OutboxEvent
			if err := rows.Scan(&event.ID, &event.RaceID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan outbox event: %w", err)
			}
			events = append(events, event)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.sqlDB.ExecContext(ctx, `
		UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

func (r *Repository) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
		SELECT id, race_id, event_type, payload, created_at
		FROM outbox
		WHERE id = $1 AND sent_at IS NULL`, id)

	var event OutboxEvent
	err := row.Scan(&event.ID, &event.RaceID, &event.EventType, &event.Payload, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("outbox event not found or already sent")
		}
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	return &event, nil
}
