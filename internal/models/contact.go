package models

import "time"

// Contact is a message sent through the site's contact form.
type Contact struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Subject   string    `json:"subject,omitempty" bson:"subject,omitempty"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (c *Contact) DocumentID() string     { return c.ID }
func (c *Contact) CreatedTime() time.Time { return c.CreatedAt }

// Testimonial is a quote shown on the site.
type Testimonial struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Role      string    `json:"role,omitempty" bson:"role,omitempty"`
	Quote     string    `json:"quote" bson:"quote"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (t *Testimonial) DocumentID() string     { return t.ID }
func (t *Testimonial) CreatedTime() time.Time { return t.CreatedAt }
