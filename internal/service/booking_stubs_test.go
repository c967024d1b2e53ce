package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/crew-booking-api/internal/models"
	"github.com/noah-isme/crew-booking-api/internal/repository"
)

func mustDate(raw string) time.Time {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

type assignmentStoreStub struct {
	mu          sync.Mutex
	items       map[string]*models.AssignmentDetail
	projects    map[string]models.Project
	users       map[string]models.User
	deleted     []string
	statusCalls int
	seq         int
	updateErr   error
}

func newAssignmentStoreStub() *assignmentStoreStub {
	return &assignmentStoreStub{
		items:    map[string]*models.AssignmentDetail{},
		projects: map[string]models.Project{"p1": {ID: "p1", Name: "Stage Build"}},
		users:    map[string]models.User{"u1": {ID: "u1", FullName: "Dana Crew"}},
	}
}

func (s *assignmentStoreStub) put(detail models.AssignmentDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := detail
	s.items[d.ID] = &d
}

func (s *assignmentStoreStub) Create(ctx context.Context, a *models.ProjectAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	a.ID = fmt.Sprintf("a%d", s.seq)
	s.items[a.ID] = &models.AssignmentDetail{ProjectAssignment: *a, ProjectName: s.projects[a.ProjectID].Name, UserName: s.users[a.UserID].FullName}
	return nil
}

func (s *assignmentStoreStub) FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (s *assignmentStoreStub) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, note *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	d, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.statusCalls++
	d.BookingStatus = status
	return nil
}

func (s *assignmentStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *assignmentStoreStub) FindProject(ctx context.Context, id string) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *assignmentStoreStub) FindUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *assignmentStoreStub) ListSyncEligibleByUser(ctx context.Context, userID string, from time.Time) ([]models.AssignmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AssignmentDetail
	for _, d := range s.items {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type dayStoreStub struct {
	mu        sync.Mutex
	days      map[string]models.AssignmentDay
	seq       int
	insertErr error
}

func newDayStoreStub(days ...models.AssignmentDay) *dayStoreStub {
	s := &dayStoreStub{days: map[string]models.AssignmentDay{}}
	for _, d := range days {
		s.days[d.ID] = d
	}
	return s
}

func (s *dayStoreStub) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AssignmentDay
	for _, d := range s.days {
		if d.AssignmentID == assignmentID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *dayStoreStub) FindByID(ctx context.Context, id string) (*models.AssignmentDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (s *dayStoreStub) ExistingDates(ctx context.Context, assignmentID string, dates []time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for _, date := range dates {
		if s.hasDate(assignmentID, date, "") {
			out = append(out, date)
		}
	}
	return out, nil
}

func (s *dayStoreStub) hasDate(assignmentID string, date time.Time, exceptID string) bool {
	for _, d := range s.days {
		if d.AssignmentID == assignmentID && d.ID != exceptID && d.Date.Equal(date) {
			return true
		}
	}
	return false
}

func (s *dayStoreStub) InsertMany(ctx context.Context, days []models.AssignmentDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, d := range days {
		if s.hasDate(d.AssignmentID, d.Date, "") {
			return repository.ErrDuplicateDate
		}
	}
	for i := range days {
		s.seq++
		days[i].ID = fmt.Sprintf("d%d", s.seq)
		s.days[days[i].ID] = days[i]
	}
	return nil
}

func (s *dayStoreStub) UpdateTimes(ctx context.Context, id, startTime, endTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.StartTime, d.EndTime = startTime, endTime
	s.days[id] = d
	return nil
}

func (s *dayStoreStub) UpdateDate(ctx context.Context, id, assignmentID string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[id]
	if !ok {
		return sql.ErrNoRows
	}
	if s.hasDate(assignmentID, date, id) {
		return repository.ErrDuplicateDate
	}
	d.Date = date
	s.days[id] = d
	return nil
}

func (s *dayStoreStub) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owners []string
	for _, id := range ids {
		if d, ok := s.days[id]; ok {
			owners = append(owners, d.AssignmentID)
			delete(s.days, id)
		}
	}
	return owners, nil
}

func (s *dayStoreStub) ListInWindow(ctx context.Context, assignmentIDs []string, start, end time.Time) ([]models.AssignmentDay, error) {
	var out []models.AssignmentDay
	for _, id := range assignmentIDs {
		days, _ := s.ListByAssignment(ctx, id)
		out = append(out, days...)
	}
	return out, nil
}

type excludedStoreStub struct {
	items map[string]models.ExcludedDate
	seq   int
}

func newExcludedStoreStub() *excludedStoreStub {
	return &excludedStoreStub{items: map[string]models.ExcludedDate{}}
}

func (s *excludedStoreStub) ListByAssignment(ctx context.Context, assignmentID string) ([]models.ExcludedDate, error) {
	var out []models.ExcludedDate
	for _, e := range s.items {
		if e.AssignmentID == assignmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *excludedStoreStub) AddMany(ctx context.Context, assignmentID string, dates []time.Time, reason string) ([]models.ExcludedDate, error) {
	var out []models.ExcludedDate
	for _, date := range dates {
		s.seq++
		e := models.ExcludedDate{ID: fmt.Sprintf("x%d", s.seq), AssignmentID: assignmentID, Date: date, Reason: reason}
		s.items[e.ID] = e
		out = append(out, e)
	}
	return out, nil
}

func (s *excludedStoreStub) Delete(ctx context.Context, id string) (string, error) {
	e, ok := s.items[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(s.items, id)
	return e.AssignmentID, nil
}

type syncRecorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *syncRecorder) AssignmentChanged(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, id)
}

func (r *syncRecorder) AssignmentRemoved(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
}

type invalidationRecorder struct {
	patterns []string
}

func (r *invalidationRecorder) Invalidate(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

type conflictFinderStub struct {
	conflicts []models.Conflict
	calls     int
}

func (s *conflictFinderStub) FindConflicts(ctx context.Context, userID string, start, end time.Time, exclude string) ([]models.Conflict, error) {
	s.calls++
	return s.conflicts, nil
}
