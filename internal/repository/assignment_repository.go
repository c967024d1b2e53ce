package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/crew-booking-api/internal/models"
)

// AssignmentRepository persists project assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentDetailColumns = `pa.id, pa.project_id, pa.user_id, pa.booking_status, pa.notes, pa.created_at, pa.updated_at,
       p.name AS project_name, p.created_at AS project_created_at, u.full_name AS user_name, u.email AS user_email,
       span.span_start, span.span_end`

const assignmentDetailFrom = `
FROM project_assignments pa
JOIN projects p ON p.id = pa.project_id
JOIN users u ON u.id = pa.user_id
LEFT JOIN LATERAL (
    SELECT MIN(ad.date) AS span_start, MAX(ad.date) AS span_end
    FROM assignment_days ad WHERE ad.assignment_id = pa.id
) span ON TRUE`

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.ProjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO project_assignments (id, project_id, user_id, booking_status, notes, created_at, updated_at)
		VALUES (:id, :project_id, :user_id, :booking_status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment with project/user identity and day span.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	query := `SELECT ` + assignmentDetailColumns + assignmentDetailFrom + `
WHERE pa.id = $1`
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &detail, nil
}

// UpdateStatus persists a booking status; a non-nil note replaces the notes field.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, note *string) error {
	const query = `UPDATE project_assignments
SET booking_status = $2, notes = COALESCE($3, notes), updated_at = $4
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, note, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment; days and exclusions cascade.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM project_assignments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSpansByUser returns the day spans of the user's assignments intersecting [start, end].
func (r *AssignmentRepository) ListSpansByUser(ctx context.Context, userID string, start, end time.Time) ([]models.AssignmentSpan, error) {
	const query = `
SELECT pa.id AS assignment_id, pa.project_id, p.name AS project_name, pa.user_id,
       MIN(ad.date) AS span_start, MAX(ad.date) AS span_end
FROM project_assignments pa
JOIN projects p ON p.id = pa.project_id
JOIN assignment_days ad ON ad.assignment_id = pa.id
WHERE pa.user_id = $1
GROUP BY pa.id, pa.project_id, p.name, pa.user_id
HAVING MIN(ad.date) <= $3 AND MAX(ad.date) >= $2
ORDER BY span_start ASC, pa.id ASC`
	var spans []models.AssignmentSpan
	if err := r.db.SelectContext(ctx, &spans, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("list assignment spans: %w", err)
	}
	return spans, nil
}

// ListInRange returns assignments whose day span intersects [start, end], ordered for gantt rendering.
func (r *AssignmentRepository) ListInRange(ctx context.Context, start, end time.Time, filter models.GanttFilter) ([]models.AssignmentDetail, error) {
	where := []string{"span.span_start <= $2", "span.span_end >= $1"}
	args := []interface{}{start, end}
	if len(filter.ProjectIDs) > 0 {
		where = append(where, fmt.Sprintf("pa.project_id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.ProjectIDs))
	}
	if len(filter.UserIDs) > 0 {
		where = append(where, fmt.Sprintf("pa.user_id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.UserIDs))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, fmt.Sprintf("pa.booking_status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	query := `SELECT ` + assignmentDetailColumns + assignmentDetailFrom + `
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY p.created_at ASC, p.id ASC, span.span_start ASC, pa.id ASC`
	var rows []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments in range: %w", err)
	}
	return rows, nil
}

// ListSyncEligibleByUser returns the user's assignments with at least one day on or after from.
func (r *AssignmentRepository) ListSyncEligibleByUser(ctx context.Context, userID string, from time.Time) ([]models.AssignmentDetail, error) {
	query := `SELECT ` + assignmentDetailColumns + assignmentDetailFrom + `
WHERE pa.user_id = $1 AND span.span_end >= $2
ORDER BY span.span_start ASC, pa.id ASC`
	var rows []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, userID, from); err != nil {
		return nil, fmt.Errorf("list sync eligible assignments: %w", err)
	}
	return rows, nil
}

// FindProject returns a project by id.
func (r *AssignmentRepository) FindProject(ctx context.Context, id string) (*models.Project, error) {
	const query = `SELECT id, name, created_at FROM projects WHERE id = $1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

// FindUser returns a bookable user by id.
func (r *AssignmentRepository) FindUser(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, full_name, email FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
