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

// ExcludedDateRepository persists dates carved out of assignments.
type ExcludedDateRepository struct {
	db *sqlx.DB
}

// NewExcludedDateRepository constructs the repository.
func NewExcludedDateRepository(db *sqlx.DB) *ExcludedDateRepository {
	return &ExcludedDateRepository{db: db}
}

// ListByAssignment returns exclusions of an assignment ordered by date.
func (r *ExcludedDateRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.ExcludedDate, error) {
	const query = `SELECT id, assignment_id, date, reason, created_at FROM assignment_excluded_dates WHERE assignment_id = $1 ORDER BY date ASC`
	var dates []models.ExcludedDate
	if err := r.db.SelectContext(ctx, &dates, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list excluded dates: %w", err)
	}
	return dates, nil
}

// AddMany excludes dates from an assignment, removing booked days on the same dates in the same transaction.
// Dates that are already excluded are skipped; the stored rows are returned.
func (r *ExcludedDateRepository) AddMany(ctx context.Context, assignmentID string, dates []time.Time, reason string) ([]models.ExcludedDate, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add excluded dates: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const removeDay = `DELETE FROM assignment_days WHERE assignment_id = $1 AND date = $2`
	const insert = `INSERT INTO assignment_excluded_dates (id, assignment_id, date, reason, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (assignment_id, date) DO NOTHING RETURNING id`
	now := time.Now().UTC()
	stored := make([]models.ExcludedDate, 0, len(dates))
	for _, date := range dates {
		if _, err := tx.ExecContext(ctx, removeDay, assignmentID, date); err != nil {
			return nil, fmt.Errorf("remove day for excluded date: %w", err)
		}
		record := models.ExcludedDate{ID: uuid.NewString(), AssignmentID: assignmentID, Date: date, Reason: reason, CreatedAt: now}
		var insertedID string
		if err := tx.QueryRowxContext(ctx, insert, record.ID, record.AssignmentID, record.Date, record.Reason, record.CreatedAt).Scan(&insertedID); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("insert excluded date: %w", err)
		}
		stored = append(stored, record)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit excluded dates: %w", err)
	}
	commit = true
	return stored, nil
}

// Delete removes one exclusion and returns the owning assignment id.
func (r *ExcludedDateRepository) Delete(ctx context.Context, id string) (string, error) {
	const query = `DELETE FROM assignment_excluded_dates WHERE id = $1 RETURNING assignment_id`
	var assignmentID string
	if err := r.db.GetContext(ctx, &assignmentID, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("delete excluded date: %w", err)
	}
	return assignmentID, nil
}
