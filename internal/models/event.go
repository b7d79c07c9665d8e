package models

import (
	"strings"
	"time"
)

// EventType values.
const (
	EventTypePast     = "Past"
	EventTypeUpcoming = "Upcoming"
)

// Speaker is one presenter of an event.
type Speaker struct {
	Role  string `json:"role,omitempty" bson:"role,omitempty"`
	Name  string `json:"name" bson:"name"`
	Title string `json:"title,omitempty" bson:"title,omitempty"`
	Bio   string `json:"bio,omitempty" bson:"bio,omitempty"`
}

// Event is a workshop, webinar or bootcamp listed on the site.
// Date is free text as shown to visitors ("15th March 2025, 6 PM IST"), not a calendar value.
type Event struct {
	ID                 string    `json:"id" bson:"_id"`
	Title              string    `json:"title" bson:"title"`
	Date               string    `json:"date" bson:"date"`
	Type               string    `json:"type" bson:"type"`
	Description        string    `json:"description" bson:"description"`
	Poster             string    `json:"poster,omitempty" bson:"poster,omitempty"`
	Price              int       `json:"price" bson:"price"`
	RecordingAvailable bool      `json:"recordingAvailable" bson:"recordingAvailable"`
	IsVisible          bool      `json:"isVisible" bson:"isVisible"`
	RegistrationURL    string    `json:"registrationUrl,omitempty" bson:"registrationUrl,omitempty"`
	WhatsappGroupURL   string    `json:"whatsappGroupUrl,omitempty" bson:"whatsappGroupUrl,omitempty"`
	Highlights         []string  `json:"highlights,omitempty" bson:"highlights,omitempty"`
	Speaker            *Speaker  `json:"speaker,omitempty" bson:"speaker,omitempty"`
	Speakers           []Speaker `json:"speakers,omitempty" bson:"speakers,omitempty"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
}

func (e *Event) DocumentID() string     { return e.ID }
func (e *Event) CreatedTime() time.Time { return e.CreatedAt }

// IsValidEventType reports whether t is Past or Upcoming.
func IsValidEventType(t string) bool {
	return t == EventTypePast || t == EventTypeUpcoming
}

// SpeakerKind tags which representation a SpeakerInfo holds.
type SpeakerKind int

const (
	SpeakerNone SpeakerKind = iota
	SpeakerSingle
	SpeakerMultiple
)

func (k SpeakerKind) String() string {
	switch k {
	case SpeakerSingle:
		return "single"
	case SpeakerMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// MarshalText renders the kind by name.
func (k SpeakerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name; unknown names read as none.
func (k *SpeakerKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "single":
		*k = SpeakerSingle
	case "multiple":
		*k = SpeakerMultiple
	default:
		*k = SpeakerNone
	}
	return nil
}

// SpeakerInfo is the resolved speaker line-up of an event.
type SpeakerInfo struct {
	Kind SpeakerKind `json:"kind"`
	List []Speaker   `json:"speakers"`
}

// SpeakerInfo resolves the stored speaker/speakers pair. A non-empty speakers list wins over the single field.
func (e *Event) SpeakerInfo() SpeakerInfo {
	var list []Speaker
	for _, s := range e.Speakers {
		if strings.TrimSpace(s.Name) != "" {
			list = append(list, s)
		}
	}
	switch {
	case len(list) > 1:
		return SpeakerInfo{Kind: SpeakerMultiple, List: list}
	case len(list) == 1:
		return SpeakerInfo{Kind: SpeakerSingle, List: list}
	case e.Speaker != nil && strings.TrimSpace(e.Speaker.Name) != "":
		return SpeakerInfo{Kind: SpeakerSingle, List: []Speaker{*e.Speaker}}
	}
	return SpeakerInfo{Kind: SpeakerNone}
}

// Names joins speaker names for display; empty when there are none.
func (s SpeakerInfo) Names() string {
	names := make([]string, 0, len(s.List))
	for _, sp := range s.List {
		names = append(names, sp.Name)
	}
	return strings.Join(names, ", ")
}

// EventSummary is the slice of an event denormalized into registrations and emails.
type EventSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	Type  string `json:"type"`
}

// Summary returns the event's summary view.
func (e *Event) Summary() EventSummary {
	return EventSummary{ID: e.ID, Title: e.Title, Date: e.Date, Type: e.Type}
}

// EventView is an event as served by the API, with its speaker line-up resolved.
type EventView struct {
	Event
	Lineup SpeakerInfo `json:"lineup"`
}

// View returns the API representation of e.
func (e *Event) View() EventView {
	info := e.SpeakerInfo()
	if info.List == nil {
		info.List = []Speaker{}
	}
	return EventView{Event: *e, Lineup: info}
}
