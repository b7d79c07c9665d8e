package models

import "time"

// RecordingRequest is a booking for an event recording, paid offline with a screenshot as proof.
// EventID may be a real event id or an opaque id from the fallback catalog.
type RecordingRequest struct {
	ID                      string    `json:"id" bson:"_id"`
	Name                    string    `json:"name" bson:"name"`
	Email                   string    `json:"email" bson:"email"`
	Whatsapp                string    `json:"whatsapp" bson:"whatsapp"`
	Institution             string    `json:"institution" bson:"institution"`
	Location                string    `json:"location" bson:"location"`
	YearOrRole              string    `json:"yearOrRole" bson:"yearOrRole"`
	HeardFrom               string    `json:"heardFrom" bson:"heardFrom"`
	EventID                 string    `json:"eventId" bson:"eventId"`
	EventTitle              string    `json:"eventTitle,omitempty" bson:"eventTitle,omitempty"`
	PaymentScreenshot       string    `json:"paymentScreenshot" bson:"paymentScreenshot"`
	PaymentScreenshotPath   string    `json:"paymentScreenshotPath,omitempty" bson:"paymentScreenshotPath,omitempty"`
	PaymentScreenshotBase64 string    `json:"paymentScreenshotBase64,omitempty" bson:"paymentScreenshotBase64,omitempty"`
	CreatedAt               time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (r *RecordingRequest) DocumentID() string     { return r.ID }
func (r *RecordingRequest) CreatedTime() time.Time { return r.CreatedAt }
