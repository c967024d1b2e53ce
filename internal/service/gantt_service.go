package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
	"github.com/noah-isme/crew-booking-api/pkg/export"
)

const (
	ganttCachePrefix  = "gantt:"
	ganttCachePattern = ganttCachePrefix + "*"
	maxGanttWindow    = 366 * 24 * time.Hour
)

type ganttAssignmentReader interface {
	ListInRange(ctx context.Context, start, end time.Time, filter models.GanttFilter) ([]models.AssignmentDetail, error)
}

type ganttDayReader interface {
	ListInWindow(ctx context.Context, assignmentIDs []string, start, end time.Time) ([]models.AssignmentDay, error)
}

type ganttCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledTableRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// GanttService assembles assignments and their in-window days into rows for timeline views.
type GanttService struct {
	assignments ganttAssignmentReader
	days        ganttDayReader
	cache       ganttCache
	ttl         time.Duration
	csv         tableRenderer
	pdf         titledTableRenderer
	logger      *zap.Logger
}

// NewGanttService constructs the aggregator.
func NewGanttService(assignments ganttAssignmentReader, days ganttDayReader, cache ganttCache, ttl time.Duration, csv tableRenderer, pdf titledTableRenderer, logger *zap.Logger) *GanttService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &GanttService{assignments: assignments, days: days, cache: cache, ttl: ttl, csv: csv, pdf: pdf, logger: logger}
}

// Aggregate returns one row per assignment whose span intersects [start, end], ordered by project
// creation, project id, span start and assignment id. Days outside the window are dropped.
func (s *GanttService) Aggregate(ctx context.Context, start, end time.Time, filter models.GanttFilter) ([]models.GanttRow, error) {
	start = models.NormalizeDate(start)
	end = models.NormalizeDate(end)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "end date must not be before start date")
	}
	if end.Sub(start) > maxGanttWindow {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "window must not exceed one year")
	}
	for _, status := range filter.Statuses {
		if !status.Active() && status != models.BookingStatusComplete {
			return nil, appErrors.Clone(appErrors.ErrUnsupportedStatus, fmt.Sprintf("unsupported booking status %q", status))
		}
	}

	key := ganttCacheKey(start, end, filter)
	if s.cache != nil {
		var cached []models.GanttRow
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	details, err := s.assignments.ListInRange(ctx, start, end, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments in range")
	}
	rows := make([]models.GanttRow, 0, len(details))
	if len(details) == 0 {
		return rows, nil
	}

	ids := make([]string, len(details))
	for i, d := range details {
		ids[i] = d.ID
	}
	days, err := s.days.ListInWindow(ctx, ids, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment days in range")
	}
	byAssignment := make(map[string][]models.AssignmentDay, len(details))
	for _, day := range days {
		if day.Date.Before(start) || day.Date.After(end) {
			continue
		}
		byAssignment[day.AssignmentID] = append(byAssignment[day.AssignmentID], day)
	}

	for _, d := range details {
		row := models.GanttRow{
			AssignmentID:     d.ID,
			ProjectID:        d.ProjectID,
			ProjectName:      d.ProjectName,
			ProjectCreatedAt: d.ProjectCreatedAt,
			UserID:           d.UserID,
			UserName:         d.UserName,
			BookingStatus:    d.BookingStatus,
			Days:             byAssignment[d.ID],
		}
		if d.SpanStart != nil {
			row.SpanStart = *d.SpanStart
		}
		if d.SpanEnd != nil {
			row.SpanEnd = *d.SpanEnd
		}
		if row.Days == nil {
			row.Days = []models.AssignmentDay{}
		}
		rows = append(rows, row)
	}
	sortGanttRows(rows)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows, s.ttl); err != nil {
			s.logger.Debug("gantt cache write skipped", zap.Error(err))
		}
	}
	return rows, nil
}

// Export renders the window as CSV or PDF, one line per booked day.
func (s *GanttService) Export(ctx context.Context, start, end time.Time, filter models.GanttFilter, format string) (*dto.GanttExport, error) {
	rows, err := s.Aggregate(ctx, start, end, filter)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Headers: []string{"Project", "Person", "Status", "Date", "Start", "End"},
		Widths:  []float64{4, 3, 2, 2, 1, 1},
	}
	for _, row := range rows {
		for _, day := range row.Days {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Project": row.ProjectName,
				"Person":  row.UserName,
				"Status":  string(row.BookingStatus),
				"Date":    day.Date.Format(models.DateLayout),
				"Start":   day.StartTime,
				"End":     day.EndTime,
			})
		}
	}
	base := fmt.Sprintf("bookings_%s_%s", models.NormalizeDate(start).Format(models.DateLayout), models.NormalizeDate(end).Format(models.DateLayout))
	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.GanttExport{Filename: base + ".csv", ContentType: "text/csv", Content: content}, nil
	case "pdf":
		title := fmt.Sprintf("Bookings %s to %s", models.NormalizeDate(start).Format(models.DateLayout), models.NormalizeDate(end).Format(models.DateLayout))
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &dto.GanttExport{Filename: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func sortGanttRows(rows []models.GanttRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.ProjectCreatedAt.Equal(b.ProjectCreatedAt) {
			return a.ProjectCreatedAt.Before(b.ProjectCreatedAt)
		}
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		if !a.SpanStart.Equal(b.SpanStart) {
			return a.SpanStart.Before(b.SpanStart)
		}
		return a.AssignmentID < b.AssignmentID
	})
}

func ganttCacheKey(start, end time.Time, filter models.GanttFilter) string {
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}
	parts := []string{
		strings.Join(sortedCopy(filter.ProjectIDs), ","),
		strings.Join(sortedCopy(filter.UserIDs), ","),
		strings.Join(sortedCopy(statuses), ","),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s%s:%s:%s", ganttCachePrefix, start.Format(models.DateLayout), end.Format(models.DateLayout), hex.EncodeToString(sum[:8]))
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
