package models

import "time"

// CalendarConnection is one OAuth2 credential set linking a user to an external calendar provider.
type CalendarConnection struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	Provider           string    `db:"provider" json:"provider"`
	AccessToken        string    `db:"access_token" json:"-"`
	RefreshToken       string    `db:"refresh_token" json:"-"`
	TokenExpiresAt     time.Time `db:"token_expires_at" json:"token_expires_at"`
	ExternalCalendarID string    `db:"external_calendar_id" json:"external_calendar_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
	// TokensUnreadable marks a row whose sealed tokens could not be opened; it needs re-consent.
	TokensUnreadable bool `db:"-" json:"tokens_unreadable,omitempty"`
}

// NeedsRefresh reports whether the access token is inside the refresh buffer.
func (c *CalendarConnection) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	return !now.Before(c.TokenExpiresAt.Add(-buffer))
}

// SyncedCalendarEvent maps one (assignment, connection) pair to the external event it produced.
type SyncedCalendarEvent struct {
	ID              string     `db:"id" json:"id"`
	AssignmentID    string     `db:"assignment_id" json:"assignment_id"`
	ConnectionID    string     `db:"connection_id" json:"connection_id"`
	ExternalEventID *string    `db:"external_event_id" json:"external_event_id,omitempty"`
	LastSyncedAt    *time.Time `db:"last_synced_at" json:"last_synced_at,omitempty"`
	LastError       *string    `db:"last_error" json:"last_error,omitempty"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// HasExternalEvent reports whether a provider event id is stored.
func (e *SyncedCalendarEvent) HasExternalEvent() bool {
	return e != nil && e.ExternalEventID != nil && *e.ExternalEventID != ""
}

// SyncErrorView is a listable, dismissible sync failure.
type SyncErrorView struct {
	ID            string    `db:"id" json:"id"`
	AssignmentID  string    `db:"assignment_id" json:"assignment_id"`
	ConnectionID  string    `db:"connection_id" json:"connection_id"`
	Provider      string    `db:"provider" json:"provider"`
	ProjectName   *string   `db:"project_name" json:"project_name,omitempty"`
	Error         string    `db:"last_error" json:"error"`
	LastAttemptAt time.Time `db:"updated_at" json:"last_attempt_at"`
}
