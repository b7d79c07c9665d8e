package models

import "time"

// Registration is a sign-up for an event. EventTitle is copied at write time and never re-synced.
type Registration struct {
	ID                     string     `json:"id" bson:"_id"`
	EventID                string     `json:"eventId" bson:"eventId"`
	EventTitle             string     `json:"eventTitle" bson:"eventTitle"`
	FullName               string     `json:"fullName" bson:"fullName"`
	Email                  string     `json:"email" bson:"email"`
	Phone                  string     `json:"phone" bson:"phone"`
	SchoolCollegeWorkplace string     `json:"schoolCollegeWorkplace" bson:"schoolCollegeWorkplace"`
	YearOfStudy            *string    `json:"yearOfStudy,omitempty" bson:"yearOfStudy,omitempty"`
	HeardAboutFrom         string     `json:"heardAboutFrom" bson:"heardAboutFrom"`
	RegistrationType       string     `json:"registrationType" bson:"registrationType"`
	TransactionID          *string    `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	SubmittedToGoogleForm  bool       `json:"submittedToGoogleForm" bson:"submittedToGoogleForm"`
	GoogleFormSubmittedAt  *time.Time `json:"googleFormSubmittedAt,omitempty" bson:"googleFormSubmittedAt,omitempty"`
	CreatedAt              time.Time  `json:"createdAt" bson:"createdAt"`
}

func (r *Registration) DocumentID() string     { return r.ID }
func (r *Registration) CreatedTime() time.Time { return r.CreatedAt }

// RegistrationView is a registration with its event's current title/date/type attached.
type RegistrationView struct {
	Registration
	Event *EventSummary `json:"event,omitempty"`
}
