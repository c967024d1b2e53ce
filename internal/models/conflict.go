package models

import (
	"sort"
	"strings"
	"time"
)

// AssignmentSpan is the date range covered by one assignment's days.
type AssignmentSpan struct {
	AssignmentID string    `db:"assignment_id"`
	ProjectID    string    `db:"project_id"`
	ProjectName  string    `db:"project_name"`
	UserID       string    `db:"user_id"`
	SpanStart    time.Time `db:"span_start"`
	SpanEnd      time.Time `db:"span_end"`
}

// Conflict describes another booking of the same person overlapping the checked range.
// ID and Acknowledged are only set when the check names the assignment being tested;
// a plain window check has no pair to identify or override.
type Conflict struct {
	ID           string    `json:"id,omitempty"`
	AssignmentID string    `json:"assignment_id"`
	ProjectID    string    `json:"project_id"`
	ProjectName  string    `json:"project_name"`
	OverlapStart time.Time `json:"overlap_start"`
	OverlapEnd   time.Time `json:"overlap_end"`
	Acknowledged bool      `json:"acknowledged"`
}

// ConflictOverride records that a conflict was reviewed and accepted.
type ConflictOverride struct {
	ID          string    `db:"id" json:"id"`
	ConflictID  string    `db:"conflict_id" json:"conflict_id"`
	AssignmentA string    `db:"assignment_a" json:"assignment_a"`
	AssignmentB string    `db:"assignment_b" json:"assignment_b"`
	Reason      string    `db:"reason" json:"reason"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const conflictIDSeparator = "~"

// ConflictID derives an order-independent identifier for a pair of assignments.
func ConflictID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + conflictIDSeparator + pair[1]
}

// SplitConflictID returns the two assignment ids encoded in a conflict id.
func SplitConflictID(id string) (string, string, bool) {
	parts := strings.Split(id, conflictIDSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
