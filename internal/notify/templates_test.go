package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduverse/site-backend/internal/models"
)

const admin = "ops@eduverse.in"

func TestContactEmails(t *testing.T) {
	c := &models.Contact{Name: "A", Email: "a@x.com", Message: "test", CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}

	emails, err := ContactEmails(c, admin)
	require.NoError(t, err)
	require.Len(t, emails, 2)

	assert.Equal(t, models.EmailAudienceAdmin, emails[0].Audience)
	assert.Equal(t, admin, emails[0].Message.To)
	assert.Equal(t, "a@x.com", emails[0].Message.ReplyTo)
	assert.Equal(t, "New contact message from A", emails[0].Message.Subject)
	// no subject given
	assert.Contains(t, emails[0].Message.HTML, Placeholder)
	assert.Contains(t, emails[0].Message.HTML, "01 Mar 2025 10:00 UTC")

	assert.Equal(t, models.EmailAudienceUser, emails[1].Audience)
	assert.Equal(t, "a@x.com", emails[1].Message.To)
	assert.Contains(t, emails[1].Message.HTML, "Hi A,")
}

func TestEmailsAreDeterministic(t *testing.T) {
	r := &models.RecordingRequest{Name: "B", Email: "b@x.com", EventTitle: "GenAI Bootcamp", PaymentScreenshot: "proof.png"}
	first, err := BookingEmails(r, admin)
	require.NoError(t, err)
	second, err := BookingEmails(r, admin)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMissingOptionalFieldsRenderPlaceholder(t *testing.T) {
	reg := &models.Registration{FullName: "C", Email: "c@x.com", EventTitle: "Workshop"}
	emails, err := RegistrationEmails(reg, admin)
	require.NoError(t, err)

	html := emails[0].Message.HTML
	assert.GreaterOrEqual(t, strings.Count(html, Placeholder), 2, "year of study and transaction id")

	// an entirely empty booking must still render
	emails, err = BookingEmails(&models.RecordingRequest{}, admin)
	require.NoError(t, err)
	assert.Equal(t, "New recording booking: N/A", emails[0].Message.Subject)
}

func TestSubmittedTextIsEscaped(t *testing.T) {
	c := &models.Contact{Name: "<script>x</script>", Email: "a@x.com", Message: "hi"}
	emails, err := ContactEmails(c, admin)
	require.NoError(t, err)
	assert.NotContains(t, emails[0].Message.HTML, "<script>")
	assert.Contains(t, emails[0].Message.HTML, "&lt;script&gt;")
}

func TestSubjectStaysOnOneLine(t *testing.T) {
	c := &models.Contact{Name: "A\r\nBcc: victim@x.com", Email: "a@x.com", Message: "hi"}
	emails, err := ContactEmails(c, admin)
	require.NoError(t, err)
	assert.NotContains(t, emails[0].Message.Subject, "\n")
	assert.NotContains(t, emails[0].Message.Subject, "\r")
}
