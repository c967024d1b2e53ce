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

// ConfirmationRepository persists customer confirmation requests.
type ConfirmationRepository struct {
	db *sqlx.DB
}

// NewConfirmationRepository constructs the repository.
func NewConfirmationRepository(db *sqlx.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

// Create inserts a confirmation request.
func (r *ConfirmationRepository) Create(ctx context.Context, req *models.ConfirmationRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = models.ConfirmationPending
	}
	const query = `INSERT INTO confirmation_requests (id, project_id, assignment_ids, recipient_email, status, expires_at, created_at)
		VALUES (:id, :project_id, :assignment_ids, :recipient_email, :status, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create confirmation request: %w", err)
	}
	return nil
}

// FindByID returns a confirmation request.
func (r *ConfirmationRepository) FindByID(ctx context.Context, id string) (*models.ConfirmationRequest, error) {
	const query = `SELECT id, project_id, assignment_ids, recipient_email, status, expires_at, created_at, responded_at
FROM confirmation_requests WHERE id = $1`
	var req models.ConfirmationRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get confirmation request: %w", err)
	}
	return &req, nil
}

// Resolve moves a pending request to its final status; sql.ErrNoRows means it was not pending.
func (r *ConfirmationRepository) Resolve(ctx context.Context, id string, status models.ConfirmationStatus, respondedAt time.Time) error {
	const query = `UPDATE confirmation_requests SET status = $2, responded_at = $3 WHERE id = $1 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, id, status, respondedAt)
	if err != nil {
		return fmt.Errorf("resolve confirmation request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resolved confirmation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
