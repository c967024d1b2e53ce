package models

import "time"

// ProjectAssignment books one person on one project.
type ProjectAssignment struct {
	ID            string        `db:"id" json:"id"`
	ProjectID     string        `db:"project_id" json:"project_id"`
	UserID        string        `db:"user_id" json:"user_id"`
	BookingStatus BookingStatus `db:"booking_status" json:"booking_status"`
	Notes         string        `db:"notes" json:"notes"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail enriches an assignment with project/user identity and its day span.
type AssignmentDetail struct {
	ProjectAssignment
	ProjectName      string     `db:"project_name" json:"project_name"`
	ProjectCreatedAt time.Time  `db:"project_created_at" json:"-"`
	UserName         string     `db:"user_name" json:"user_name"`
	UserEmail        string     `db:"user_email" json:"user_email"`
	SpanStart        *time.Time `db:"span_start" json:"span_start,omitempty"`
	SpanEnd          *time.Time `db:"span_end" json:"span_end,omitempty"`
}

// AssignmentDay is one booked calendar date with its working hours.
type AssignmentDay struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	Date         time.Time `db:"date" json:"date"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
}

// ExcludedDate carves a date out of an assignment's nominal span.
type ExcludedDate struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	Date         time.Time `db:"date" json:"date"`
	Reason       string    `db:"reason" json:"reason"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AssignmentWithDays bundles an assignment with its days and exclusions.
type AssignmentWithDays struct {
	AssignmentDetail
	Days          []AssignmentDay `json:"days"`
	ExcludedDates []ExcludedDate  `json:"excluded_dates"`
}

// Project is the read-only project identity referenced by assignments.
type Project struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User is the read-only identity of a bookable person.
type User struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}
