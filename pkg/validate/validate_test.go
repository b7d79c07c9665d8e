package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type contactInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

func TestMissingReportsEveryField(t *testing.T) {
	got := Missing(contactInput{Email: "a@x.com"})
	assert.Equal(t, []string{"name", "message"}, got)
	assert.Equal(t, "Missing required fields: name, message", Message(got))
}

func TestMissingValid(t *testing.T) {
	assert.Nil(t, Missing(contactInput{Name: "A", Email: "a@x.com", Message: "m"}))
}

func TestTypeOneOf(t *testing.T) {
	type eventInput struct {
		Type string `json:"type" validate:"required,oneof=Past Upcoming"`
	}
	assert.Nil(t, Missing(eventInput{Type: "Past"}))
	assert.Equal(t, []string{"type"}, Missing(eventInput{Type: "Soon"}))
}
