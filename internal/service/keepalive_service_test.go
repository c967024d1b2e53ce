package service

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crew-booking-api/internal/models"
)

type refreshingTokens struct {
	refresh map[string]bool
	fail    map[string]bool
}

func (s refreshingTokens) GetValidToken(ctx context.Context, conn *models.CalendarConnection) (string, *models.CalendarConnection, error) {
	if s.fail[conn.ID] {
		return "", conn, errors.New("invalid_grant")
	}
	if s.refresh[conn.ID] {
		updated := *conn
		updated.TokenExpiresAt = conn.TokenExpiresAt.Add(time.Hour)
		return "fresh", &updated, nil
	}
	return "current", conn, nil
}

type pingerStub struct {
	calls int32
	err   error
}

func (p *pingerStub) Ping(ctx context.Context, token string) error {
	atomic.AddInt32(&p.calls, 1)
	return p.err
}

func TestKeepAliveRunOnceCounts(t *testing.T) {
	conns := &connectionsStub{conns: []models.CalendarConnection{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}}
	tokens := refreshingTokens{refresh: map[string]bool{"c2": true}, fail: map[string]bool{"c3": true}}
	pinger := &pingerStub{}
	svc := NewKeepAliveService(conns, tokens, pinger, time.Hour, time.Second, NewMetricsService(), nil)

	result := svc.RunOnce(context.Background())
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 1, result.Refreshed)
	assert.Equal(t, 1, result.Failed)
	assert.EqualValues(t, 2, atomic.LoadInt32(&pinger.calls))
}

func TestKeepAliveSkipsUnreadableConnection(t *testing.T) {
	now := time.Now()
	srv, hits := newTokenServer(t, http.StatusOK, `{}`)
	tokens := newTestTokenService(srv, &tokenStoreStub{}, now)
	conns := &connectionsStub{conns: []models.CalendarConnection{
		{ID: "c1", AccessToken: "a1", RefreshToken: "r1", TokenExpiresAt: now.Add(time.Hour)},
		{ID: "c2", TokenExpiresAt: now.Add(time.Hour), TokensUnreadable: true},
		{ID: "c3", AccessToken: "a3", RefreshToken: "r3", TokenExpiresAt: now.Add(time.Hour)},
	}}
	pinger := &pingerStub{}
	svc := NewKeepAliveService(conns, tokens, pinger, time.Hour, time.Second, NewMetricsService(), nil)

	result := svc.RunOnce(context.Background())
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 1, result.Failed)
	assert.EqualValues(t, 2, atomic.LoadInt32(&pinger.calls))
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestKeepAlivePingFailureCounts(t *testing.T) {
	conns := &connectionsStub{conns: []models.CalendarConnection{{ID: "c1"}}}
	svc := NewKeepAliveService(conns, refreshingTokens{}, &pingerStub{err: errors.New("401")}, time.Hour, 0, nil, nil)
	result := svc.RunOnce(context.Background())
	assert.Equal(t, 1, result.Failed)
}

func TestKeepAliveStartRunsImmediatelyAndStops(t *testing.T) {
	conns := &connectionsStub{conns: []models.CalendarConnection{{ID: "c1"}}}
	pinger := &pingerStub{}
	svc := NewKeepAliveService(conns, refreshingTokens{}, pinger, 20*time.Millisecond, time.Second, nil, nil)

	svc.Start(context.Background())
	svc.Start(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&pinger.calls) >= 2 }, 2*time.Second, 5*time.Millisecond)
	svc.Stop()

	after := atomic.LoadInt32(&pinger.calls)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&pinger.calls))
	svc.Stop()
}
