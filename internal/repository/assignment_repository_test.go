package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crew-booking-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var detailColumns = []string{"id", "project_id", "user_id", "booking_status", "notes", "created_at", "updated_at",
	"project_name", "project_created_at", "user_name", "user_email", "span_start", "span_end"}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO project_assignments").WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.ProjectAssignment{ProjectID: "p1", UserID: "u1", BookingStatus: models.BookingStatusDraft}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(detailColumns).
		AddRow("a1", "p1", "u1", "confirmed", "", now, now, "Launch", now, "Ana", "ana@example.com", start, end)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE pa.id = $1")).WithArgs("a1").WillReturnRows(rows)

	detail, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, detail.BookingStatus)
	assert.Equal(t, "Launch", detail.ProjectName)
	require.NotNil(t, detail.SpanEnd)
	assert.Equal(t, end, *detail.SpanEnd)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE pa.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAssignmentRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE project_assignments")).
		WithArgs("a1", models.BookingStatusConfirmed, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "a1", models.BookingStatusConfirmed, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListSpansByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"assignment_id", "project_id", "project_name", "user_id", "span_start", "span_end"}).
		AddRow("a2", "p2", "Other", "u1", start.AddDate(0, 0, 2), start.AddDate(0, 0, 4))
	mock.ExpectQuery(regexp.QuoteMeta("HAVING MIN(ad.date) <= $3 AND MAX(ad.date) >= $2")).
		WithArgs("u1", start, end).
		WillReturnRows(rows)

	spans, err := repo.ListSpansByUser(context.Background(), "u1", start, end)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "a2", spans[0].AssignmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListInRangeWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("pa.project_id = ANY($3) AND pa.booking_status = ANY($4)")).
		WithArgs(start, end, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(detailColumns))

	rows, err := repo.ListInRange(context.Background(), start, end, models.GanttFilter{
		ProjectIDs: []string{"p1"},
		Statuses:   []models.BookingStatus{models.BookingStatusConfirmed},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
