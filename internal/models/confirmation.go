package models

import (
	"time"

	"github.com/lib/pq"
)

// ConfirmationStatus tracks the customer response to a confirmation request.
type ConfirmationStatus string

const (
	ConfirmationPending  ConfirmationStatus = "pending"
	ConfirmationApproved ConfirmationStatus = "approved"
	ConfirmationDeclined ConfirmationStatus = "declined"
)

// ConfirmationRequest asks a customer to approve a batch of assignments.
type ConfirmationRequest struct {
	ID             string             `db:"id" json:"id"`
	ProjectID      string             `db:"project_id" json:"project_id"`
	AssignmentIDs  pq.StringArray     `db:"assignment_ids" json:"assignment_ids"`
	RecipientEmail string             `db:"recipient_email" json:"recipient_email"`
	Status         ConfirmationStatus `db:"status" json:"status"`
	ExpiresAt      time.Time          `db:"expires_at" json:"expires_at"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	RespondedAt    *time.Time         `db:"responded_at" json:"responded_at,omitempty"`
}

// MailMessage is published to the mail queue for an external mail worker to render and send.
type MailMessage struct {
	Type string      `json:"type"`
	To   string      `json:"to"`
	Data interface{} `json:"data"`
}

// ConfirmationMailData is the payload of a confirmation request email.
type ConfirmationMailData struct {
	ProjectName string    `json:"projectName"`
	ApproveURL  string    `json:"approveUrl"`
	DeclineURL  string    `json:"declineUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Assignments int       `json:"assignments"`
}
