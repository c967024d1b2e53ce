package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

const oauthStateTTL = 10 * time.Minute

type connectionStore interface {
	FindByID(ctx context.Context, id string) (*models.CalendarConnection, error)
	Upsert(ctx context.Context, conn *models.CalendarConnection) error
	Delete(ctx context.Context, id string) error
}

type oauthFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

type userFinder interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

// CalendarConnectionService runs the OAuth consent flow and disconnects calendars.
type CalendarConnectionService struct {
	connections connectionStore
	users       userFinder
	oauth       oauthFlow
	provider    string
	stateSecret string
	logger      *zap.Logger
	now         func() time.Time
}

// NewCalendarConnectionService constructs the service for the configured provider.
func NewCalendarConnectionService(connections connectionStore, users userFinder, oauth oauthFlow, provider, stateSecret string, logger *zap.Logger) *CalendarConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarConnectionService{
		connections: connections,
		users:       users,
		oauth:       oauth,
		provider:    strings.ToLower(provider),
		stateSecret: stateSecret,
		logger:      logger,
		now:         time.Now,
	}
}

// AuthorizeURL returns the provider consent URL for a user. The state parameter is a short-lived signed token.
func (s *CalendarConnectionService) AuthorizeURL(ctx context.Context, userID, provider string) (string, error) {
	if err := s.checkProvider(provider); err != nil {
		return "", err
	}
	if _, err := s.users.FindUser(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	issued := s.now().UTC()
	state, err := signClaims(s.stateSecret, &models.OAuthStateClaims{
		UserID:   userID,
		Provider: s.provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(oauthStateTTL)),
		},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign oauth state")
	}
	return s.oauth.AuthCodeURL(state), nil
}

// HandleCallback exchanges the authorization code and stores the connection for the user named in state.
func (s *CalendarConnectionService) HandleCallback(ctx context.Context, provider, code, state string) (*models.CalendarConnection, error) {
	if err := s.checkProvider(provider); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "authorization code is required")
	}
	var claims models.OAuthStateClaims
	if err := parseClaims(s.stateSecret, state, &claims); err != nil {
		return nil, err
	}
	if claims.Provider != s.provider {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "state was issued for another provider")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		return nil, appErrors.Clone(appErrors.ErrTokenRefresh, "provider did not return a refresh token")
	}
	conn := &models.CalendarConnection{
		UserID:         claims.UserID,
		Provider:       s.provider,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.Expiry.UTC(),
	}
	if err := s.connections.Upsert(ctx, conn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store calendar connection")
	}
	s.logger.Info("calendar connected", zap.String("user_id", conn.UserID), zap.String("provider", conn.Provider), zap.String("connection_id", conn.ID))
	return conn, nil
}

// Disconnect deletes a connection. Its sync mappings go with it; events already on the provider stay.
func (s *CalendarConnectionService) Disconnect(ctx context.Context, id string) error {
	if err := s.connections.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "calendar connection not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete calendar connection")
	}
	s.logger.Info("calendar disconnected", zap.String("connection_id", id))
	return nil
}

func (s *CalendarConnectionService) checkProvider(provider string) error {
	if strings.ToLower(strings.TrimSpace(provider)) != s.provider {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported calendar provider")
	}
	return nil
}
