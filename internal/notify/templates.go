package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/eduverse/site-backend/internal/mailer"
	"github.com/eduverse/site-backend/internal/models"
)

// Placeholder is rendered for optional fields that were not provided.
const Placeholder = "N/A"

const brandName = "EduVerse"

type field struct {
	Label string
	Value string
}

type body struct {
	Brand    string
	Heading  string
	Greeting string
	Intro    string
	Fields   []field
	Outro    string
}

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; line-height: 1.4; color: #202020; font-size: 16px; margin: 0; padding: 0; background: #ffffff;">
    <div style="max-width: 640px; margin: auto; padding: 24px; background: #1e2a78; color: #ffffff; text-align: center;">
        <h1 style="margin: 0; font-size: 22px;">{{.Brand}}</h1>
    </div>
    <div style="max-width: 640px; margin: auto; padding: 24px; background: #f6f7fb;">
        <div style="background: #ffffff; padding: 24px; border-radius: 8px;">
            <h2 style="margin: 0 0 16px 0; font-size: 20px;">{{.Heading}}</h2>
            {{- if .Greeting}}
            <p style="color: #4a4a4a; margin: 0 0 16px 0;">{{.Greeting}}</p>
            {{- end}}
            {{- if .Intro}}
            <p style="color: #4a4a4a; margin: 0 0 16px 0;">{{.Intro}}</p>
            {{- end}}
            {{- if .Fields}}
            <table style="width: 100%; border-collapse: collapse; margin: 0 0 16px 0;">
                {{- range .Fields}}
                <tr>
                    <td style="padding: 8px; border-bottom: 1px solid #eeeeee; color: #777777; width: 40%;">{{.Label}}</td>
                    <td style="padding: 8px; border-bottom: 1px solid #eeeeee;">{{.Value}}</td>
                </tr>
                {{- end}}
            </table>
            {{- end}}
            {{- if .Outro}}
            <p style="color: #4a4a4a; margin: 0;">{{.Outro}}</p>
            {{- end}}
        </div>
    </div>
    <div style="max-width: 640px; margin: auto; padding: 12px; text-align: center; font-size: 12px; color: #777777;">
        You are receiving this email because of a submission on the {{.Brand}} website.
    </div>
</body>
</html>`))

func render(b body) (string, error) {
	b.Brand = brandName
	var buf bytes.Buffer
	if err := layout.Execute(&buf, b); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func ptrOrNA(s *string) string {
	if s == nil {
		return Placeholder
	}
	return orNA(*s)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// oneLine keeps submitted text from breaking out of a header.
func oneLine(s string) string {
	return lineBreaks.Replace(s)
}

// Email is one rendered message and who it is for.
type Email struct {
	Audience string         `json:"audience"`
	Message  mailer.Message `json:"message"`
}

func pair(flow, adminAddr, userAddr string, admin, user body, adminSubject, userSubject, replyTo string) ([]Email, error) {
	adminHTML, err := render(admin)
	if err != nil {
		return nil, fmt.Errorf("%s admin: %w", flow, err)
	}
	userHTML, err := render(user)
	if err != nil {
		return nil, fmt.Errorf("%s user: %w", flow, err)
	}
	return []Email{
		{
			Audience: models.EmailAudienceAdmin,
			Message:  mailer.Message{To: strings.TrimSpace(adminAddr), ReplyTo: strings.TrimSpace(replyTo), Subject: oneLine(adminSubject), HTML: adminHTML},
		},
		{
			Audience: models.EmailAudienceUser,
			Message:  mailer.Message{To: strings.TrimSpace(userAddr), Subject: oneLine(userSubject), HTML: userHTML},
		},
	}, nil
}

// ContactEmails renders the operator alert and the sender acknowledgement for a contact message.
func ContactEmails(c *models.Contact, adminAddr string) ([]Email, error) {
	fields := []field{
		{"Name", orNA(c.Name)},
		{"Email", orNA(c.Email)},
		{"Subject", orNA(c.Subject)},
		{"Message", orNA(c.Message)},
		{"Received", stamp(c.CreatedAt)},
	}
	admin := body{
		Heading: "New contact message",
		Intro:   "A visitor sent a message through the contact form.",
		Fields:  fields,
	}
	user := body{
		Heading:  "We received your message",
		Greeting: "Hi " + orNA(c.Name) + ",",
		Intro:    "Thanks for reaching out. Our team will get back to you shortly. Here is a copy of your message:",
		Fields:   fields[2:4],
		Outro:    "Team " + brandName,
	}
	return pair(models.EmailFlowContact, adminAddr, c.Email, admin, user,
		"New contact message from "+orNA(c.Name),
		"We received your message",
		c.Email)
}

// BookingEmails renders the operator alert and the acknowledgement for a recording booking.
func BookingEmails(r *models.RecordingRequest, adminAddr string) ([]Email, error) {
	event := orNA(r.EventTitle)
	admin := body{
		Heading: "New recording booking",
		Intro:   "A recording was requested. Verify the payment screenshot before sharing access.",
		Fields: []field{
			{"Event", event},
			{"Event ID", orNA(r.EventID)},
			{"Name", orNA(r.Name)},
			{"Email", orNA(r.Email)},
			{"WhatsApp", orNA(r.Whatsapp)},
			{"Institution", orNA(r.Institution)},
			{"Location", orNA(r.Location)},
			{"Year / Role", orNA(r.YearOrRole)},
			{"Heard from", orNA(r.HeardFrom)},
			{"Payment screenshot", orNA(r.PaymentScreenshot)},
			{"Stored at", orNA(r.PaymentScreenshotPath)},
			{"Received", stamp(r.CreatedAt)},
		},
	}
	user := body{
		Heading:  "Your recording request is in",
		Greeting: "Hi " + orNA(r.Name) + ",",
		Intro:    "We received your request for the recording below. Once the payment is verified we will send the access link to this address.",
		Fields: []field{
			{"Event", event},
			{"WhatsApp", orNA(r.Whatsapp)},
		},
		Outro: "Team " + brandName,
	}
	return pair(models.EmailFlowBooking, adminAddr, r.Email, admin, user,
		"New recording booking: "+event,
		"Recording request received: "+event,
		r.Email)
}

// RegistrationEmails renders the operator alert and the confirmation for an event registration.
func RegistrationEmails(r *models.Registration, adminAddr string) ([]Email, error) {
	event := orNA(r.EventTitle)
	admin := body{
		Heading: "New event registration",
		Fields: []field{
			{"Event", event},
			{"Name", orNA(r.FullName)},
			{"Email", orNA(r.Email)},
			{"Phone", orNA(r.Phone)},
			{"School / College / Workplace", orNA(r.SchoolCollegeWorkplace)},
			{"Year of study", ptrOrNA(r.YearOfStudy)},
			{"Heard about from", orNA(r.HeardAboutFrom)},
			{"Registration type", orNA(r.RegistrationType)},
			{"Transaction ID", ptrOrNA(r.TransactionID)},
			{"Received", stamp(r.CreatedAt)},
		},
	}
	user := body{
		Heading:  "You're registered",
		Greeting: "Hi " + orNA(r.FullName) + ",",
		Intro:    "Your registration is confirmed. We will share the joining details before the event.",
		Fields: []field{
			{"Event", event},
			{"Registration type", orNA(r.RegistrationType)},
			{"Transaction ID", ptrOrNA(r.TransactionID)},
		},
		Outro: "Team " + brandName,
	}
	return pair(models.EmailFlowRegistration, adminAddr, r.Email, admin, user,
		"New registration: "+event,
		"Registration confirmed: "+event,
		r.Email)
}
