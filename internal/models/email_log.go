package models

import "time"

// Email flows.
const (
	EmailFlowContact      = "contact"
	EmailFlowBooking      = "booking"
	EmailFlowRegistration = "registration"
)

// Email audiences: the operator inbox or the person who submitted the form.
const (
	EmailAudienceAdmin = "admin"
	EmailAudienceUser  = "user"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records one delivery attempt of a transactional email.
type EmailLog struct {
	ID        string    `json:"id" bson:"_id"`
	JobID     string    `json:"jobId" bson:"jobId"`
	Flow      string    `json:"flow" bson:"flow"`
	Audience  string    `json:"audience" bson:"audience"`
	Recipient string    `json:"recipient" bson:"recipient"`
	Subject   string    `json:"subject,omitempty" bson:"subject,omitempty"`
	Status    string    `json:"status" bson:"status"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (l *EmailLog) DocumentID() string     { return l.ID }
func (l *EmailLog) CreatedTime() time.Time { return l.CreatedAt }
