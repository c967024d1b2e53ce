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

// TokenSealer encrypts OAuth tokens at rest.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// CalendarConnectionRepository persists OAuth credentials per (user, provider).
type CalendarConnectionRepository struct {
	db     *sqlx.DB
	sealer TokenSealer
}

// NewCalendarConnectionRepository constructs the repository. A nil sealer stores tokens as provided.
func NewCalendarConnectionRepository(db *sqlx.DB, sealer TokenSealer) *CalendarConnectionRepository {
	return &CalendarConnectionRepository{db: db, sealer: sealer}
}

const connectionColumns = `id, user_id, provider, access_token, refresh_token, token_expires_at, external_calendar_id, created_at, updated_at`

// ListByUser returns the connections of a user ordered by provider.
func (r *CalendarConnectionRepository) ListByUser(ctx context.Context, userID string) ([]models.CalendarConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM calendar_connections WHERE user_id = $1 ORDER BY provider ASC, id ASC`
	var conns []models.CalendarConnection
	if err := r.db.SelectContext(ctx, &conns, query, userID); err != nil {
		return nil, fmt.Errorf("list calendar connections: %w", err)
	}
	return r.openAll(conns), nil
}

// ListAll returns every stored connection.
func (r *CalendarConnectionRepository) ListAll(ctx context.Context) ([]models.CalendarConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM calendar_connections ORDER BY user_id ASC, provider ASC`
	var conns []models.CalendarConnection
	if err := r.db.SelectContext(ctx, &conns, query); err != nil {
		return nil, fmt.Errorf("list all calendar connections: %w", err)
	}
	return r.openAll(conns), nil
}

// FindByID returns one connection.
func (r *CalendarConnectionRepository) FindByID(ctx context.Context, id string) (*models.CalendarConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM calendar_connections WHERE id = $1`
	var conn models.CalendarConnection
	if err := r.db.GetContext(ctx, &conn, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get calendar connection: %w", err)
	}
	r.open(&conn)
	return &conn, nil
}

// Upsert stores a connection keyed by (user_id, provider), replacing the tokens of an existing one.
func (r *CalendarConnectionRepository) Upsert(ctx context.Context, conn *models.CalendarConnection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	access, refresh, err := r.seal(conn.AccessToken, conn.RefreshToken)
	if err != nil {
		return err
	}
	const query = `INSERT INTO calendar_connections (id, user_id, provider, access_token, refresh_token, token_expires_at, external_calendar_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id, provider) DO UPDATE
SET access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    token_expires_at = EXCLUDED.token_expires_at,
    external_calendar_id = EXCLUDED.external_calendar_id,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	var stored struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &stored, query, conn.ID, conn.UserID, conn.Provider, access, refresh, conn.TokenExpiresAt, conn.ExternalCalendarID, conn.CreatedAt, conn.UpdatedAt); err != nil {
		return fmt.Errorf("upsert calendar connection: %w", err)
	}
	conn.ID = stored.ID
	conn.CreatedAt = stored.CreatedAt
	return nil
}

// UpdateTokens overwrites the token pair and expiry; concurrent writers resolve as last-writer-wins.
func (r *CalendarConnectionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	access, refresh, err := r.seal(accessToken, refreshToken)
	if err != nil {
		return err
	}
	const query = `UPDATE calendar_connections
SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = $5
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, access, refresh, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update calendar tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated connection rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a connection; its sync mappings cascade.
func (r *CalendarConnectionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM calendar_connections WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete calendar connection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted connection rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *CalendarConnectionRepository) seal(access, refresh string) (string, string, error) {
	if r.sealer == nil {
		return access, refresh, nil
	}
	sealedAccess, err := r.sealer.Seal(access)
	if err != nil {
		return "", "", fmt.Errorf("seal access token: %w", err)
	}
	sealedRefresh, err := r.sealer.Seal(refresh)
	if err != nil {
		return "", "", fmt.Errorf("seal refresh token: %w", err)
	}
	return sealedAccess, sealedRefresh, nil
}

// open decrypts the stored pair. A row that cannot be opened is flagged instead of failing the read,
// so one bad row never hides the user's other connections.
func (r *CalendarConnectionRepository) open(conn *models.CalendarConnection) {
	if r.sealer == nil {
		return
	}
	access, accessErr := r.sealer.Open(conn.AccessToken)
	refresh, refreshErr := r.sealer.Open(conn.RefreshToken)
	if accessErr != nil || refreshErr != nil {
		conn.AccessToken = ""
		conn.RefreshToken = ""
		conn.TokensUnreadable = true
		return
	}
	conn.AccessToken = access
	conn.RefreshToken = refresh
}

func (r *CalendarConnectionRepository) openAll(conns []models.CalendarConnection) []models.CalendarConnection {
	for i := range conns {
		r.open(&conns[i])
	}
	return conns
}
