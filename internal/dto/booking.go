package dto

import "github.com/noah-isme/crew-booking-api/internal/models"

// DayInput is one booked date with its working hours.
type DayInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// CreateAssignmentRequest books a user on a project.
type CreateAssignmentRequest struct {
	ProjectID     string     `json:"project_id" validate:"required"`
	UserID        string     `json:"user_id" validate:"required"`
	BookingStatus string     `json:"booking_status"`
	Notes         string     `json:"notes" validate:"max=2000"`
	Days          []DayInput `json:"days" validate:"dive"`
}

// CreateAssignmentResponse returns the stored assignment and the bookings it overlaps.
type CreateAssignmentResponse struct {
	Assignment *models.AssignmentWithDays `json:"assignment"`
	Conflicts  []models.Conflict          `json:"conflicts"`
}

// AddDaysRequest adds dates to an assignment.
type AddDaysRequest struct {
	Days []DayInput `json:"days" validate:"required,min=1,dive"`
}

// UpdateDayRequest changes the working hours of one day.
type UpdateDayRequest struct {
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// MoveDayRequest moves a day to another date.
type MoveDayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// RemoveDaysRequest removes days by id.
type RemoveDaysRequest struct {
	DayIDs []string `json:"day_ids" validate:"required,min=1,dive,required"`
}

// RemoveDaysResponse reports how many rows were actually removed.
type RemoveDaysResponse struct {
	Removed int `json:"removed"`
}

// StatusResponse carries the status produced by a cycle.
type StatusResponse struct {
	AssignmentID  string               `json:"assignment_id"`
	BookingStatus models.BookingStatus `json:"booking_status"`
}

// BulkStatusRequest changes the status of many assignments.
type BulkStatusRequest struct {
	AssignmentIDs []string `json:"assignment_ids" validate:"required,min=1,dive,required"`
	Status        string   `json:"status" validate:"required"`
	Note          *string  `json:"note"`
}

// BulkIDsRequest lists ids for a bulk removal.
type BulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// BulkFailure explains why one item of a bulk call was not applied.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports per-item outcomes of a bulk operation.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// AddExcludedDatesRequest carves dates out of an assignment.
type AddExcludedDatesRequest struct {
	Dates  []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	Reason string   `json:"reason" validate:"max=500"`
}

// ConflictQuery checks a user's bookings against a range.
type ConflictQuery struct {
	UserID              string `form:"user_id" validate:"required"`
	StartDate           string `form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate             string `form:"end_date" validate:"required,datetime=2006-01-02"`
	ExcludeAssignmentID string `form:"exclude_assignment_id"`
}

// OverrideConflictRequest acknowledges a conflict.
type OverrideConflictRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// GanttQuery selects a window and optional filters.
type GanttQuery struct {
	StartDate  string   `form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string   `form:"end_date" validate:"required,datetime=2006-01-02"`
	ProjectIDs []string `form:"project_id"`
	UserIDs    []string `form:"user_id"`
	Statuses   []string `form:"status"`
	Format     string   `form:"format"`
}

// GanttResponse returns flat rows plus the per-project grouping.
type GanttResponse struct {
	Rows     []models.GanttRow     `json:"rows"`
	Projects []models.GanttProject `json:"projects"`
}

// GanttExport is a rendered export document.
type GanttExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// FullSyncResult tallies a full resync.
type FullSyncResult struct {
	Synced  int      `json:"synced"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
	Batches int      `json:"batches"`
}

// RetrySyncResult reports a single-assignment retry.
type RetrySyncResult struct {
	Success     bool     `json:"success"`
	Connections int      `json:"connections"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors,omitempty"`
}

// KeepAliveResult tallies one keep-alive pass.
type KeepAliveResult struct {
	Checked   int `json:"checked"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// AuthorizeResponse carries the provider consent URL.
type AuthorizeResponse struct {
	URL string `json:"url"`
}

// CreateConfirmationRequest asks a customer to approve assignments.
type CreateConfirmationRequest struct {
	ProjectID      string   `json:"project_id" validate:"required"`
	AssignmentIDs  []string `json:"assignment_ids" validate:"required,min=1,dive,required"`
	RecipientEmail string   `json:"recipient_email" validate:"required,email"`
}

// RespondConfirmationRequest records the customer decision carried by an approval token.
type RespondConfirmationRequest struct {
	Token    string `json:"token" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approve decline"`
}

// ConfirmationResponse reports the result of a decision.
type ConfirmationResponse struct {
	Request *models.ConfirmationRequest `json:"request"`
	Result  *BulkResult                 `json:"result,omitempty"`
}
