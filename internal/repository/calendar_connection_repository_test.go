package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crew-booking-api/internal/models"
	"github.com/noah-isme/crew-booking-api/pkg/secret"
)

var connectionRowColumns = []string{"id", "user_id", "provider", "access_token", "refresh_token", "token_expires_at", "external_calendar_id", "created_at", "updated_at"}

type capturingArg struct {
	value *string
}

func (c capturingArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*c.value = s
	}
	return ok
}

func TestCalendarConnectionUpsertSealsTokens(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	box := secret.NewBox("passphrase")
	repo := NewCalendarConnectionRepository(db, box)

	var storedAccess, storedRefresh string
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user_id, provider) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "u1", "outlook", capturingArg{&storedAccess}, capturingArg{&storedRefresh}, sqlmock.AnyArg(), "cal", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("c-existing", now))

	conn := &models.CalendarConnection{UserID: "u1", Provider: "outlook", AccessToken: "access", RefreshToken: "refresh", TokenExpiresAt: now, ExternalCalendarID: "cal"}
	require.NoError(t, repo.Upsert(context.Background(), conn))
	assert.Equal(t, "c-existing", conn.ID)
	assert.Equal(t, "access", conn.AccessToken)
	assert.True(t, strings.HasPrefix(storedAccess, "sb1:"))
	assert.NotContains(t, storedRefresh, "refresh")
	assert.NoError(t, mock.ExpectationsWereMet())

	opened, err := box.Open(storedAccess)
	require.NoError(t, err)
	assert.Equal(t, "access", opened)
}

func TestCalendarConnectionListByUserOpensTokens(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	box := secret.NewBox("passphrase")
	repo := NewCalendarConnectionRepository(db, box)

	sealedAccess, err := box.Seal("access")
	require.NoError(t, err)
	now := time.Now()
	rows := sqlmock.NewRows(connectionRowColumns).
		AddRow("c1", "u1", "outlook", sealedAccess, "legacy-plain-refresh", now, "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM calendar_connections WHERE user_id = $1")).WithArgs("u1").WillReturnRows(rows)

	conns, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "access", conns[0].AccessToken)
	assert.Equal(t, "legacy-plain-refresh", conns[0].RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarConnectionListAllFlagsUnreadableRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	box := secret.NewBox("passphrase")
	repo := NewCalendarConnectionRepository(db, box)

	sealedAccess, err := box.Seal("access")
	require.NoError(t, err)
	sealedRefresh, err := box.Seal("refresh")
	require.NoError(t, err)
	rotated := secret.NewBox("previous-passphrase")
	staleAccess, err := rotated.Seal("old-access")
	require.NoError(t, err)
	staleRefresh, err := rotated.Seal("old-refresh")
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows(connectionRowColumns).
		AddRow("c1", "u1", "outlook", sealedAccess, sealedRefresh, now, "", now, now).
		AddRow("c2", "u1", "outlook", staleAccess, staleRefresh, now, "", now, now).
		AddRow("c3", "u2", "outlook", sealedAccess, sealedRefresh, now, "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM calendar_connections ORDER BY user_id ASC")).WillReturnRows(rows)

	conns, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, conns, 3)
	assert.Equal(t, "access", conns[0].AccessToken)
	assert.False(t, conns[0].TokensUnreadable)
	assert.True(t, conns[1].TokensUnreadable)
	assert.Empty(t, conns[1].AccessToken)
	assert.Empty(t, conns[1].RefreshToken)
	assert.Equal(t, "refresh", conns[2].RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarConnectionUpdateTokensPlaintext(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCalendarConnectionRepository(db, nil)

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE calendar_connections")).
		WithArgs("c1", "new-access", "new-refresh", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateTokens(context.Background(), "c1", "new-access", "new-refresh", expires))
	assert.NoError(t, mock.ExpectationsWereMet())
}
