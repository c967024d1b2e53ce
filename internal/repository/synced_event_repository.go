package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/crew-booking-api/internal/models"
)

// SyncedEventRepository persists the (assignment, connection) → external event mapping.
type SyncedEventRepository struct {
	db *sqlx.DB
}

// NewSyncedEventRepository constructs the repository.
func NewSyncedEventRepository(db *sqlx.DB) *SyncedEventRepository {
	return &SyncedEventRepository{db: db}
}

const syncedEventColumns = `id, assignment_id, connection_id, external_event_id, last_synced_at, last_error, updated_at`

// Find returns the mapping for one pair.
func (r *SyncedEventRepository) Find(ctx context.Context, assignmentID, connectionID string) (*models.SyncedCalendarEvent, error) {
	query := `SELECT ` + syncedEventColumns + ` FROM synced_calendar_events WHERE assignment_id = $1 AND connection_id = $2`
	var event models.SyncedCalendarEvent
	if err := r.db.GetContext(ctx, &event, query, assignmentID, connectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get synced event: %w", err)
	}
	return &event, nil
}

// ListByAssignment returns every mapping of an assignment across connections.
func (r *SyncedEventRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SyncedCalendarEvent, error) {
	query := `SELECT ` + syncedEventColumns + ` FROM synced_calendar_events WHERE assignment_id = $1 ORDER BY connection_id ASC`
	var events []models.SyncedCalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list synced events: %w", err)
	}
	return events, nil
}

// UpsertSuccess records a successful create/update and clears any previous error.
func (r *SyncedEventRepository) UpsertSuccess(ctx context.Context, assignmentID, connectionID, externalEventID string, syncedAt time.Time) error {
	const query = `INSERT INTO synced_calendar_events (id, assignment_id, connection_id, external_event_id, last_synced_at, last_error, updated_at)
VALUES ($1, $2, $3, $4, $5, NULL, $5)
ON CONFLICT (assignment_id, connection_id) DO UPDATE
SET external_event_id = EXCLUDED.external_event_id,
    last_synced_at = EXCLUDED.last_synced_at,
    last_error = NULL,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), assignmentID, connectionID, externalEventID, syncedAt); err != nil {
		return fmt.Errorf("upsert synced event: %w", err)
	}
	return nil
}

// UpsertError records a failed attempt; a stored external event id is preserved.
func (r *SyncedEventRepository) UpsertError(ctx context.Context, assignmentID, connectionID, message string, attemptedAt time.Time) error {
	const query = `INSERT INTO synced_calendar_events (id, assignment_id, connection_id, external_event_id, last_synced_at, last_error, updated_at)
VALUES ($1, $2, $3, NULL, NULL, $4, $5)
ON CONFLICT (assignment_id, connection_id) DO UPDATE
SET last_error = EXCLUDED.last_error,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), assignmentID, connectionID, message, attemptedAt); err != nil {
		return fmt.Errorf("record sync error: %w", err)
	}
	return nil
}

// Delete drops the mapping of one pair. Missing rows are not an error.
func (r *SyncedEventRepository) Delete(ctx context.Context, assignmentID, connectionID string) error {
	const query = `DELETE FROM synced_calendar_events WHERE assignment_id = $1 AND connection_id = $2`
	if _, err := r.db.ExecContext(ctx, query, assignmentID, connectionID); err != nil {
		return fmt.Errorf("delete synced event: %w", err)
	}
	return nil
}

// ListErrorsByUser returns failed mappings of a user's connections, most recent first.
func (r *SyncedEventRepository) ListErrorsByUser(ctx context.Context, userID string) ([]models.SyncErrorView, error) {
	const query = `
SELECT se.id, se.assignment_id, se.connection_id, cc.provider, p.name AS project_name, se.last_error, se.updated_at
FROM synced_calendar_events se
JOIN calendar_connections cc ON cc.id = se.connection_id
LEFT JOIN project_assignments pa ON pa.id = se.assignment_id
LEFT JOIN projects p ON p.id = pa.project_id
WHERE cc.user_id = $1 AND se.last_error IS NOT NULL
ORDER BY se.updated_at DESC`
	var views []models.SyncErrorView
	if err := r.db.SelectContext(ctx, &views, query, userID); err != nil {
		return nil, fmt.Errorf("list sync errors: %w", err)
	}
	return views, nil
}

// ClearError dismisses the stored error of a mapping row.
func (r *SyncedEventRepository) ClearError(ctx context.Context, id string) error {
	const query = `UPDATE synced_calendar_events SET last_error = NULL WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clear sync error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check cleared sync rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
