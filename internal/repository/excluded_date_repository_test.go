package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludedDateAddManyRemovesDaysAndSkipsExisting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExcludedDateRepository(db)

	d1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignment_days WHERE assignment_id = $1 AND date = $2")).
		WithArgs("a1", d1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assignment_excluded_dates")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("x1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignment_days WHERE assignment_id = $1 AND date = $2")).
		WithArgs("a1", d2).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assignment_excluded_dates")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	stored, err := repo.AddMany(context.Background(), "a1", []time.Time{d1, d2}, "holiday")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, d1, stored[0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExcludedDateDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExcludedDateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM assignment_excluded_dates WHERE id = $1 RETURNING assignment_id")).
		WithArgs("x1").
		WillReturnRows(sqlmock.NewRows([]string{"assignment_id"}).AddRow("a1"))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM assignment_excluded_dates WHERE id = $1 RETURNING assignment_id")).
		WithArgs("x2").
		WillReturnError(sql.ErrNoRows)

	owner, err := repo.Delete(context.Background(), "x1")
	require.NoError(t, err)
	assert.Equal(t, "a1", owner)

	_, err = repo.Delete(context.Background(), "x2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
