package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

const defaultRefreshBuffer = 5 * time.Minute

type tokenStore interface {
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
}

// TokenServiceConfig configures the provider OAuth2 client.
type TokenServiceConfig struct {
	OAuth         *oauth2.Config
	RefreshBuffer time.Duration
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// TokenService keeps calendar connection tokens usable.
type TokenService struct {
	store      tokenStore
	oauth      *oauth2.Config
	buffer     time.Duration
	timeout    time.Duration
	httpClient *http.Client
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time

	locks keyedMutex
	mu    sync.Mutex
	spent map[string]spentRefresh
}

// spentRefresh remembers the pair a refresh token was exchanged for, so stale copies of the
// connection reuse it instead of spending the same refresh token again.
type spentRefresh struct {
	refreshToken string
	conn         models.CalendarConnection
}

// NewTokenService constructs the token manager.
func NewTokenService(store tokenStore, cfg TokenServiceConfig, metrics *MetricsService, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = defaultRefreshBuffer
	}
	return &TokenService{
		store:      store,
		oauth:      cfg.OAuth,
		buffer:     cfg.RefreshBuffer,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		spent:      make(map[string]spentRefresh),
	}
}

// GetValidToken returns a usable access token, refreshing and persisting the pair when the stored one
// is inside the refresh buffer. A failed refresh leaves the stored row untouched.
func (s *TokenService) GetValidToken(ctx context.Context, conn *models.CalendarConnection) (string, *models.CalendarConnection, error) {
	if conn == nil {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "calendar connection is required")
	}
	if conn.TokensUnreadable {
		s.metrics.ObserveTokenRefresh(false)
		return "", conn, appErrors.Clone(appErrors.ErrTokenRefresh, "stored calendar tokens cannot be decrypted; reconnect the calendar")
	}
	if !conn.NeedsRefresh(s.now(), s.buffer) {
		return conn.AccessToken, conn, nil
	}
	if conn.RefreshToken == "" {
		s.metrics.ObserveTokenRefresh(false)
		return "", conn, appErrors.Clone(appErrors.ErrTokenRefresh, "connection has no refresh token; re-consent required")
	}

	// One refresh per connection at a time; a caller holding the pre-refresh row gets the new pair.
	unlock := s.locks.lock(conn.ID)
	defer unlock()
	if latest, ok := s.latest(conn); ok {
		return latest.AccessToken, latest, nil
	}

	ctx, cancel := s.providerContext(ctx)
	defer cancel()
	// An empty access token forces the oauth2 token source into a refresh_token grant.
	token, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: conn.RefreshToken}).Token()
	if err != nil {
		s.metrics.ObserveTokenRefresh(false)
		s.logger.Warn("calendar token refresh failed", zap.String("connection_id", conn.ID), zap.Error(err))
		return "", conn, appErrors.Wrap(err, appErrors.ErrTokenRefresh.Code, appErrors.ErrTokenRefresh.Status, "failed to refresh calendar token")
	}

	refreshed := *conn
	refreshed.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	refreshed.TokenExpiresAt = s.expiry(token)
	refreshed.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateTokens(ctx, refreshed.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.TokenExpiresAt); err != nil {
		s.metrics.ObserveTokenRefresh(false)
		return "", conn, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refreshed calendar token")
	}
	s.remember(conn.RefreshToken, refreshed)
	s.metrics.ObserveTokenRefresh(true)
	s.logger.Debug("calendar token refreshed", zap.String("connection_id", conn.ID), zap.Time("expires_at", refreshed.TokenExpiresAt))
	return refreshed.AccessToken, &refreshed, nil
}

func (s *TokenService) latest(conn *models.CalendarConnection) (*models.CalendarConnection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.spent[conn.ID]
	if !ok || entry.refreshToken != conn.RefreshToken || entry.conn.NeedsRefresh(s.now(), s.buffer) {
		return nil, false
	}
	latest := entry.conn
	return &latest, true
}

func (s *TokenService) remember(spentToken string, refreshed models.CalendarConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spent[refreshed.ID] = spentRefresh{refreshToken: spentToken, conn: refreshed}
}

// AuthCodeURL returns the consent URL carrying state.
func (s *TokenService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token pair.
func (s *TokenService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := s.providerContext(ctx)
	defer cancel()
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTokenRefresh.Code, appErrors.ErrTokenRefresh.Status, "failed to exchange authorization code")
	}
	if token.Expiry.IsZero() {
		token.Expiry = s.now().Add(time.Hour)
	}
	return token, nil
}

func (s *TokenService) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *TokenService) expiry(token *oauth2.Token) time.Time {
	if token.Expiry.IsZero() {
		return s.now().Add(time.Hour).UTC()
	}
	return token.Expiry.UTC()
}
