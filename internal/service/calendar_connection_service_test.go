package service

import (
	"context"
	"database/sql"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

type connectionStoreStub struct {
	upserted []models.CalendarConnection
	existing map[string]bool
}

func (s *connectionStoreStub) FindByID(ctx context.Context, id string) (*models.CalendarConnection, error) {
	if !s.existing[id] {
		return nil, sql.ErrNoRows
	}
	return &models.CalendarConnection{ID: id}, nil
}

func (s *connectionStoreStub) Upsert(ctx context.Context, conn *models.CalendarConnection) error {
	conn.ID = "conn-1"
	s.upserted = append(s.upserted, *conn)
	return nil
}

func (s *connectionStoreStub) Delete(ctx context.Context, id string) error {
	if !s.existing[id] {
		return sql.ErrNoRows
	}
	delete(s.existing, id)
	return nil
}

type oauthFlowStub struct {
	token *oauth2.Token
	codes []string
}

func (s *oauthFlowStub) AuthCodeURL(state string) string {
	return "https://login.example.com/authorize?state=" + url.QueryEscape(state)
}

func (s *oauthFlowStub) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	s.codes = append(s.codes, code)
	return s.token, nil
}

func newConnectionFixture() (*CalendarConnectionService, *connectionStoreStub, *oauthFlowStub) {
	store := &connectionStoreStub{existing: map[string]bool{"c1": true}}
	flow := &oauthFlowStub{token: &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}}
	svc := NewCalendarConnectionService(store, newAssignmentStoreStub(), flow, "outlook", "state-secret", nil)
	return svc, store, flow
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	return parsed.Query().Get("state")
}

func TestCalendarConnectionRoundTrip(t *testing.T) {
	svc, store, flow := newConnectionFixture()
	ctx := context.Background()

	authURL, err := svc.AuthorizeURL(ctx, "u1", "Outlook")
	require.NoError(t, err)
	state := stateFrom(t, authURL)
	require.NotEmpty(t, state)

	conn, err := svc.HandleCallback(ctx, "outlook", "code-1", state)
	require.NoError(t, err)
	assert.Equal(t, "u1", conn.UserID)
	assert.Equal(t, "outlook", conn.Provider)
	assert.Equal(t, []string{"code-1"}, flow.codes)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "rt", store.upserted[0].RefreshToken)
}

func TestCalendarConnectionRejectsBadInput(t *testing.T) {
	svc, _, flow := newConnectionFixture()
	ctx := context.Background()

	_, err := svc.AuthorizeURL(ctx, "u1", "google")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.AuthorizeURL(ctx, "ghost", "outlook")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.HandleCallback(ctx, "outlook", "code", "tampered.state.value")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	other := NewCalendarConnectionService(&connectionStoreStub{}, newAssignmentStoreStub(), flow, "outlook", "another-secret", nil)
	authURL, err := other.AuthorizeURL(ctx, "u1", "outlook")
	require.NoError(t, err)
	_, err = svc.HandleCallback(ctx, "outlook", "code", stateFrom(t, authURL))
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, flow.codes)
}

func TestCalendarConnectionExpiredState(t *testing.T) {
	svc, _, _ := newConnectionFixture()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	authURL, err := svc.AuthorizeURL(context.Background(), "u1", "outlook")
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), "outlook", "code", stateFrom(t, authURL))
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestCalendarConnectionDisconnect(t *testing.T) {
	svc, _, _ := newConnectionFixture()
	require.NoError(t, svc.Disconnect(context.Background(), "c1"))
	assert.True(t, appErrors.Is(svc.Disconnect(context.Background(), "c1"), appErrors.ErrNotFound))
}
