package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/crew-booking-api/internal/models"
)

// ConflictOverrideRepository stores acknowledged double bookings.
type ConflictOverrideRepository struct {
	db *sqlx.DB
}

// NewConflictOverrideRepository constructs the repository.
func NewConflictOverrideRepository(db *sqlx.DB) *ConflictOverrideRepository {
	return &ConflictOverrideRepository{db: db}
}

// Upsert records or refreshes an acknowledgement for a conflict id.
func (r *ConflictOverrideRepository) Upsert(ctx context.Context, override *models.ConflictOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	if override.CreatedAt.IsZero() {
		override.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO conflict_overrides (id, conflict_id, assignment_a, assignment_b, reason, created_at)
		VALUES (:id, :conflict_id, :assignment_a, :assignment_b, :reason, :created_at)
		ON CONFLICT (conflict_id) DO UPDATE
		SET reason = EXCLUDED.reason,
		    created_at = EXCLUDED.created_at`
	if _, err := r.db.NamedExecContext(ctx, query, override); err != nil {
		return fmt.Errorf("upsert conflict override: %w", err)
	}
	return nil
}

// AcknowledgedIDs returns the subset of conflict ids that have an override.
func (r *ConflictOverrideRepository) AcknowledgedIDs(ctx context.Context, conflictIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(conflictIDs))
	if len(conflictIDs) == 0 {
		return result, nil
	}
	const query = `SELECT conflict_id FROM conflict_overrides WHERE conflict_id = ANY($1)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(conflictIDs)); err != nil {
		return nil, fmt.Errorf("list conflict overrides: %w", err)
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
