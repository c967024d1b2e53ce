package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	"github.com/noah-isme/crew-booking-api/pkg/calendarapi"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

const (
	syncActionCreate = "create"
	syncActionUpdate = "update"
	syncActionDelete = "delete"
)

type syncAssignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
	ListSyncEligibleByUser(ctx context.Context, userID string, from time.Time) ([]models.AssignmentDetail, error)
}

type syncDayReader interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentDay, error)
}

type syncConnectionReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.CalendarConnection, error)
	FindByID(ctx context.Context, id string) (*models.CalendarConnection, error)
}

type syncEventStore interface {
	Find(ctx context.Context, assignmentID, connectionID string) (*models.SyncedCalendarEvent, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SyncedCalendarEvent, error)
	UpsertSuccess(ctx context.Context, assignmentID, connectionID, externalEventID string, syncedAt time.Time) error
	UpsertError(ctx context.Context, assignmentID, connectionID, message string, attemptedAt time.Time) error
	Delete(ctx context.Context, assignmentID, connectionID string) error
	ListErrorsByUser(ctx context.Context, userID string) ([]models.SyncErrorView, error)
	ClearError(ctx context.Context, id string) error
}

type tokenProvider interface {
	GetValidToken(ctx context.Context, conn *models.CalendarConnection) (string, *models.CalendarConnection, error)
}

type calendarClient interface {
	CreateEvent(ctx context.Context, accessToken, calendarID string, event calendarapi.Event) (string, error)
	UpdateEvent(ctx context.Context, accessToken, eventID string, event calendarapi.Event) error
	DeleteEvent(ctx context.Context, accessToken, eventID string) error
}

// CalendarSyncConfig tunes the sync engine.
type CalendarSyncConfig struct {
	BatchSize       int
	ExternalTimeout time.Duration
	FullSyncTimeout time.Duration
	MaxErrorReports int
	TimeZone        string
}

const (
	defaultFullSyncTimeout = 10 * time.Minute
	defaultStoreTimeout    = 10 * time.Second
)

// CalendarSyncService mirrors assignments into every calendar connection of the booked user.
type CalendarSyncService struct {
	assignments syncAssignmentReader
	days        syncDayReader
	connections syncConnectionReader
	events      syncEventStore
	tokens      tokenProvider
	client      calendarClient
	cfg         CalendarSyncConfig
	location    *time.Location
	metrics     *MetricsService
	logger      *zap.Logger
	locks       keyedMutex
	now         func() time.Time
}

// NewCalendarSyncService constructs the sync engine.
func NewCalendarSyncService(assignments syncAssignmentReader, days syncDayReader, connections syncConnectionReader, events syncEventStore, tokens tokenProvider, client calendarClient, cfg CalendarSyncConfig, metrics *MetricsService, logger *zap.Logger) *CalendarSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.MaxErrorReports <= 0 {
		cfg.MaxErrorReports = 20
	}
	if cfg.FullSyncTimeout <= 0 {
		cfg.FullSyncTimeout = defaultFullSyncTimeout
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("unknown calendar time zone, using UTC", zap.String("time_zone", cfg.TimeZone), zap.Error(err))
		cfg.TimeZone = "UTC"
		location = time.UTC
	}
	return &CalendarSyncService{
		assignments: assignments,
		days:        days,
		connections: connections,
		events:      events,
		tokens:      tokens,
		client:      client,
		cfg:         cfg,
		location:    location,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// pairOutcome is the result of one (assignment, connection) sync.
type pairOutcome struct {
	connectionID string
	err          error
}

// connSession is a connection with the access token resolved for one sync run.
type connSession struct {
	conn  models.CalendarConnection
	token string
	err   error
}

// SyncAssignment creates or updates the assignment's event on every connection of its user.
// A missing assignment or one without days is synced as a removal.
func (s *CalendarSyncService) SyncAssignment(ctx context.Context, assignmentID string) (*dto.RetrySyncResult, error) {
	unlock := s.locks.lock(assignmentID)
	defer unlock()

	detail, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.deleteLocked(ctx, assignmentID)
		}
		return nil, fmt.Errorf("load assignment %s: %w", assignmentID, err)
	}
	days, err := s.days.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load days of %s: %w", assignmentID, err)
	}
	if len(days) == 0 {
		return s.deleteLocked(ctx, assignmentID)
	}
	conns, err := s.connections.ListByUser(ctx, detail.UserID)
	if err != nil {
		return nil, fmt.Errorf("load connections of %s: %w", detail.UserID, err)
	}
	outcomes := s.fanOut(ctx, detail, days, s.openSessions(ctx, conns))
	return summarize(outcomes), nil
}

// DeleteForAssignment removes the external events mapped to an assignment and drops the mappings.
// Only the assignment id is needed; the assignment row may already be gone.
func (s *CalendarSyncService) DeleteForAssignment(ctx context.Context, assignmentID string) (*dto.RetrySyncResult, error) {
	unlock := s.locks.lock(assignmentID)
	defer unlock()
	return s.deleteLocked(ctx, assignmentID)
}

func (s *CalendarSyncService) deleteLocked(ctx context.Context, assignmentID string) (*dto.RetrySyncResult, error) {
	mappings, err := s.events.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load sync mappings of %s: %w", assignmentID, err)
	}
	outcomes := make([]pairOutcome, len(mappings))
	var g errgroup.Group
	for i := range mappings {
		i := i
		mapping := mappings[i]
		g.Go(func() error {
			outcomes[i] = pairOutcome{connectionID: mapping.ConnectionID, err: s.deletePair(ctx, mapping)}
			return nil
		})
	}
	_ = g.Wait()
	return summarize(outcomes), nil
}

// FullSyncForUser resyncs every eligible assignment of the user across all connections,
// batchSize assignments at a time. Each batch waits for all of its tasks before the next starts.
// The run is bounded by FullSyncTimeout rather than by the caller's deadline.
func (s *CalendarSyncService) FullSyncForUser(ctx context.Context, userID string) (*dto.FullSyncResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FullSyncTimeout)
	defer cancel()

	result := &dto.FullSyncResult{Errors: []string{}}
	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar connections")
	}
	if len(conns) == 0 {
		return result, nil
	}
	today := models.NormalizeDate(s.now().In(s.location))
	assignments, err := s.assignments.ListSyncEligibleByUser(ctx, userID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments for sync")
	}
	sessions := s.openSessions(ctx, conns)

	for start := 0; start < len(assignments); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(assignments) {
			end = len(assignments)
		}
		batch := assignments[start:end]
		outcomes := make([][]pairOutcome, len(batch))
		labels := make([]string, len(batch))
		var g errgroup.Group
		for i := range batch {
			i := i
			detail := batch[i]
			labels[i] = detail.ProjectName
			g.Go(func() error {
				outcomes[i] = s.syncLoaded(ctx, &detail, sessions)
				return nil
			})
		}
		_ = g.Wait()
		result.Batches++

		for i, perAssignment := range outcomes {
			for _, outcome := range perAssignment {
				if outcome.err == nil {
					result.Synced++
					continue
				}
				result.Failed++
				if len(result.Errors) < s.cfg.MaxErrorReports {
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", labels[i], syncErrorMessage(outcome.err)))
				}
			}
		}
	}
	s.logger.Info("full calendar sync finished",
		zap.String("user_id", userID),
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
		zap.Int("batches", result.Batches))
	return result, nil
}

// syncLoaded loads days for an already fetched assignment and fans out; every connection yields one outcome.
func (s *CalendarSyncService) syncLoaded(ctx context.Context, detail *models.AssignmentDetail, sessions []connSession) []pairOutcome {
	unlock := s.locks.lock(detail.ID)
	defer unlock()

	days, err := s.days.ListByAssignment(ctx, detail.ID)
	if err != nil {
		outcomes := make([]pairOutcome, len(sessions))
		for i := range sessions {
			outcomes[i] = pairOutcome{connectionID: sessions[i].conn.ID, err: fmt.Errorf("load days: %w", err)}
		}
		return outcomes
	}
	return s.fanOut(ctx, detail, days, sessions)
}

// RetrySyncForAssignment reruns create/update for one assignment of the user; success means at least one connection succeeded.
func (s *CalendarSyncService) RetrySyncForAssignment(ctx context.Context, userID, assignmentID string) (*dto.RetrySyncResult, error) {
	unlock := s.locks.lock(assignmentID)
	defer unlock()

	detail, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if detail.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found for user")
	}
	days, err := s.days.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment days")
	}
	if len(days) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment has no days to sync")
	}
	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar connections")
	}
	return summarize(s.fanOut(ctx, detail, days, s.openSessions(ctx, conns))), nil
}

// GetSyncErrors lists the user's failed mappings.
func (s *CalendarSyncService) GetSyncErrors(ctx context.Context, userID string) ([]models.SyncErrorView, error) {
	views, err := s.events.ListErrorsByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sync errors")
	}
	if views == nil {
		views = []models.SyncErrorView{}
	}
	return views, nil
}

// DismissSyncError clears the stored error of a mapping.
func (s *CalendarSyncService) DismissSyncError(ctx context.Context, id string) error {
	if err := s.events.ClearError(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "sync error not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss sync error")
	}
	return nil
}

// GetActiveConnections lists the user's calendar connections.
func (s *CalendarSyncService) GetActiveConnections(ctx context.Context, userID string) ([]models.CalendarConnection, error) {
	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar connections")
	}
	if conns == nil {
		conns = []models.CalendarConnection{}
	}
	return conns, nil
}

// openSessions resolves one access token per connection. A connection whose token cannot be
// obtained keeps its error and fails only its own tasks.
func (s *CalendarSyncService) openSessions(ctx context.Context, conns []models.CalendarConnection) []connSession {
	sessions := make([]connSession, len(conns))
	var g errgroup.Group
	for i := range conns {
		i := i
		g.Go(func() error {
			conn := conns[i]
			token, updated, err := s.tokens.GetValidToken(ctx, &conn)
			if updated != nil {
				conn = *updated
			}
			sessions[i] = connSession{conn: conn, token: token, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return sessions
}

// fanOut runs one sync per connection and waits for all of them; a failure never cancels siblings.
func (s *CalendarSyncService) fanOut(ctx context.Context, detail *models.AssignmentDetail, days []models.AssignmentDay, sessions []connSession) []pairOutcome {
	event := s.buildEvent(detail, days)
	outcomes := make([]pairOutcome, len(sessions))
	var g errgroup.Group
	for i := range sessions {
		i := i
		session := sessions[i]
		g.Go(func() error {
			outcomes[i] = pairOutcome{connectionID: session.conn.ID, err: s.upsertPair(ctx, detail.ID, session, event)}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *CalendarSyncService) upsertPair(ctx context.Context, assignmentID string, session connSession, event calendarapi.Event) (err error) {
	started := time.Now()
	action := syncActionCreate
	conn := &session.conn
	defer func() {
		s.metrics.ObserveSync(action, err == nil, time.Since(started))
		if err != nil {
			s.recordError(ctx, assignmentID, conn.ID, err)
		}
	}()

	if session.err != nil {
		return session.err
	}
	token := session.token
	mapping, err := s.events.Find(ctx, assignmentID, conn.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load sync mapping: %w", err)
	}

	callCtx, cancel := s.externalContext(ctx)
	defer cancel()

	if mapping.HasExternalEvent() {
		action = syncActionUpdate
		updateErr := s.client.UpdateEvent(callCtx, token, *mapping.ExternalEventID, event)
		if updateErr == nil {
			return s.storeSuccess(ctx, assignmentID, conn.ID, *mapping.ExternalEventID)
		}
		if !errors.Is(updateErr, calendarapi.ErrNotFound) {
			return updateErr
		}
		// The event was removed on the provider side; recreate it.
		action = syncActionCreate
	}

	externalID, err := s.client.CreateEvent(callCtx, token, conn.ExternalCalendarID, event)
	if err != nil {
		return err
	}
	return s.storeSuccess(ctx, assignmentID, conn.ID, externalID)
}

// storeSuccess writes the mapping even when ctx was cancelled after the provider call went through;
// losing it would create a duplicate event on the next sync.
func (s *CalendarSyncService) storeSuccess(ctx context.Context, assignmentID, connectionID, externalID string) error {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.events.UpsertSuccess(storeCtx, assignmentID, connectionID, externalID, s.now().UTC()); err != nil {
		return fmt.Errorf("store sync mapping: %w", err)
	}
	return nil
}

func (s *CalendarSyncService) deletePair(ctx context.Context, mapping models.SyncedCalendarEvent) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveSync(syncActionDelete, err == nil, time.Since(started))
		if err != nil {
			s.recordError(ctx, mapping.AssignmentID, mapping.ConnectionID, err)
		}
	}()

	if mapping.HasExternalEvent() {
		conn, err := s.connections.FindByID(ctx, mapping.ConnectionID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("load connection: %w", err)
			}
			// Disconnected calendars cannot be reached; only the mapping is dropped.
			conn = nil
		}
		if conn != nil {
			token, _, err := s.tokens.GetValidToken(ctx, conn)
			if err != nil {
				return err
			}
			callCtx, cancel := s.externalContext(ctx)
			err = s.client.DeleteEvent(callCtx, token, *mapping.ExternalEventID)
			cancel()
			if err != nil && !errors.Is(err, calendarapi.ErrNotFound) {
				return err
			}
		}
	}
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.events.Delete(storeCtx, mapping.AssignmentID, mapping.ConnectionID); err != nil {
		return fmt.Errorf("drop sync mapping: %w", err)
	}
	return nil
}

func (s *CalendarSyncService) recordError(ctx context.Context, assignmentID, connectionID string, cause error) {
	message := syncErrorMessage(cause)
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.events.UpsertError(storeCtx, assignmentID, connectionID, message, s.now().UTC()); err != nil {
		s.logger.Error("failed to record sync error",
			zap.String("assignment_id", assignmentID),
			zap.String("connection_id", connectionID),
			zap.Error(err))
	}
	s.logger.Warn("calendar sync failed",
		zap.String("assignment_id", assignmentID),
		zap.String("connection_id", connectionID),
		zap.String("error", message))
}

// storeContext detaches mapping writes from the caller's cancellation but still bounds them.
func (s *CalendarSyncService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), defaultStoreTimeout)
}

func (s *CalendarSyncService) externalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ExternalTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.ExternalTimeout)
	}
	return context.WithCancel(ctx)
}

// buildEvent renders the provider payload. One day is a timed event; several days span all-day from first to last.
func (s *CalendarSyncService) buildEvent(detail *models.AssignmentDetail, days []models.AssignmentDay) calendarapi.Event {
	first, last := days[0], days[0]
	for _, day := range days[1:] {
		if day.Date.Before(first.Date) {
			first = day
		}
		if day.Date.After(last.Date) {
			last = day
		}
	}

	status := detail.BookingStatus
	body := strings.TrimSpace(detail.Notes)
	if body != "" {
		body += "\n\n"
	}
	body += "Status: " + string(status)

	event := calendarapi.Event{
		Subject:    fmt.Sprintf("%s — %s", detail.ProjectName, detail.UserName),
		Body:       calendarapi.ItemBody{ContentType: "text", Content: body},
		ShowAs:     status.CalendarAvailability(),
		Categories: []string{status.CalendarCategory()},
	}
	const wallClock = "2006-01-02T15:04:05"
	if len(days) == 1 {
		date := first.Date.Format(models.DateLayout)
		event.Start = calendarapi.DateTimeTimeZone{DateTime: date + "T" + first.StartTime + ":00", TimeZone: s.cfg.TimeZone}
		event.End = calendarapi.DateTimeTimeZone{DateTime: date + "T" + first.EndTime + ":00", TimeZone: s.cfg.TimeZone}
		return event
	}
	event.IsAllDay = true
	event.Start = calendarapi.DateTimeTimeZone{DateTime: models.NormalizeDate(first.Date).Format(wallClock), TimeZone: s.cfg.TimeZone}
	event.End = calendarapi.DateTimeTimeZone{DateTime: models.NormalizeDate(last.Date).AddDate(0, 0, 1).Format(wallClock), TimeZone: s.cfg.TimeZone}
	return event
}

func summarize(outcomes []pairOutcome) *dto.RetrySyncResult {
	result := &dto.RetrySyncResult{Connections: len(outcomes)}
	for _, outcome := range outcomes {
		if outcome.err == nil {
			result.Success = true
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, outcome.connectionID+": "+syncErrorMessage(outcome.err))
	}
	return result
}

func syncErrorMessage(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return appErr.Message + ": " + appErr.Err.Error()
		}
		return appErr.Message
	}
	var apiErr *calendarapi.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("calendar provider rejected the request (%d): %s", apiErr.StatusCode, apiErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "calendar provider did not respond in time"
	}
	return err.Error()
}

// keyedMutex serialises work per key; entries are dropped when no holder remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
