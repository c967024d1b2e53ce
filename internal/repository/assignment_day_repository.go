package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/crew-booking-api/internal/models"
)

// AssignmentDayRepository persists the concrete booked dates of assignments.
type AssignmentDayRepository struct {
	db *sqlx.DB
}

// NewAssignmentDayRepository constructs the repository.
func NewAssignmentDayRepository(db *sqlx.DB) *AssignmentDayRepository {
	return &AssignmentDayRepository{db: db}
}

// ListByAssignment returns all days of an assignment ordered by date.
func (r *AssignmentDayRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentDay, error) {
	const query = `SELECT id, assignment_id, date, start_time, end_time FROM assignment_days WHERE assignment_id = $1 ORDER BY date ASC`
	var days []models.AssignmentDay
	if err := r.db.SelectContext(ctx, &days, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list assignment days: %w", err)
	}
	return days, nil
}

// ListInWindow returns the days of the given assignments that fall inside [start, end].
func (r *AssignmentDayRepository) ListInWindow(ctx context.Context, assignmentIDs []string, start, end time.Time) ([]models.AssignmentDay, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, assignment_id, date, start_time, end_time FROM assignment_days
WHERE assignment_id = ANY($1) AND date >= $2 AND date <= $3
ORDER BY assignment_id ASC, date ASC`
	var days []models.AssignmentDay
	if err := r.db.SelectContext(ctx, &days, query, pq.Array(assignmentIDs), start, end); err != nil {
		return nil, fmt.Errorf("list assignment days in window: %w", err)
	}
	return days, nil
}

// FindByID returns a single day.
func (r *AssignmentDayRepository) FindByID(ctx context.Context, id string) (*models.AssignmentDay, error) {
	const query = `SELECT id, assignment_id, date, start_time, end_time FROM assignment_days WHERE id = $1`
	var day models.AssignmentDay
	if err := r.db.GetContext(ctx, &day, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment day: %w", err)
	}
	return &day, nil
}

// ExistingDates returns which of the given dates already have a day for the assignment.
func (r *AssignmentDayRepository) ExistingDates(ctx context.Context, assignmentID string, dates []time.Time) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	values := make([]string, len(dates))
	for i, d := range dates {
		values[i] = d.Format(models.DateLayout)
	}
	const query = `SELECT date FROM assignment_days WHERE assignment_id = $1 AND date = ANY($2::date[]) ORDER BY date ASC`
	var existing []time.Time
	if err := r.db.SelectContext(ctx, &existing, query, assignmentID, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("check existing assignment days: %w", err)
	}
	return existing, nil
}

// InsertMany inserts all days in one transaction and clears exclusions on the same dates.
// A unique violation rolls back the whole batch and returns ErrDuplicateDate.
func (r *AssignmentDayRepository) InsertMany(ctx context.Context, days []models.AssignmentDay) error {
	if len(days) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert assignment days: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const clearExclusion = `DELETE FROM assignment_excluded_dates WHERE assignment_id = $1 AND date = $2`
	const insert = `INSERT INTO assignment_days (id, assignment_id, date, start_time, end_time) VALUES ($1, $2, $3, $4, $5)`
	for i := range days {
		day := &days[i]
		if day.ID == "" {
			day.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, clearExclusion, day.AssignmentID, day.Date); err != nil {
			return fmt.Errorf("clear excluded date: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert, day.ID, day.AssignmentID, day.Date, day.StartTime, day.EndTime); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateDate
			}
			return fmt.Errorf("insert assignment day: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment days: %w", err)
	}
	commit = true
	return nil
}

// UpdateTimes changes the working hours of a day.
func (r *AssignmentDayRepository) UpdateTimes(ctx context.Context, id, startTime, endTime string) error {
	const query = `UPDATE assignment_days SET start_time = $2, end_time = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, startTime, endTime)
	if err != nil {
		return fmt.Errorf("update assignment day times: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated day rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateDate moves a day to another date, keeping its times. An exclusion on the target date is cleared
// in the same transaction.
func (r *AssignmentDayRepository) UpdateDate(ctx context.Context, id, assignmentID string, date time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move assignment day: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const clearExclusion = `DELETE FROM assignment_excluded_dates WHERE assignment_id = $1 AND date = $2`
	if _, err := tx.ExecContext(ctx, clearExclusion, assignmentID, date); err != nil {
		return fmt.Errorf("clear excluded date: %w", err)
	}
	const query = `UPDATE assignment_days SET date = $2 WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id, date)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDate
		}
		return fmt.Errorf("move assignment day: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check moved day rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit moved day: %w", err)
	}
	commit = true
	return nil
}

// DeleteMany removes the given days and returns the assignment id of every removed row.
func (r *AssignmentDayRepository) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `DELETE FROM assignment_days WHERE id = ANY($1) RETURNING assignment_id`
	var assignmentIDs []string
	if err := r.db.SelectContext(ctx, &assignmentIDs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("delete assignment days: %w", err)
	}
	return assignmentIDs, nil
}
