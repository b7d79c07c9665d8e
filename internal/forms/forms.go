// Package forms mirrors registrations into a Google Form by posting to its formResponse endpoint.
package forms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eduverse/site-backend/internal/models"
)

// ParseFieldMap parses "fullName=entry.111,email=entry.222" into a field-to-entry map. Malformed pairs are
// skipped.
func ParseFieldMap(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Submitter posts registrations to a Google Form.
type Submitter struct {
	actionURL string
	fields    map[string]string
	client    *http.Client
	logger    *zap.Logger
}

// NewSubmitter creates a submitter. A nil client gets a 10s timeout client.
func NewSubmitter(actionURL string, fields map[string]string, client *http.Client, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Submitter{actionURL: actionURL, fields: fields, client: client, logger: logger}
}

// Configured reports whether there is a form to submit to.
func (s *Submitter) Configured() bool {
	return s != nil && s.actionURL != "" && len(s.fields) > 0
}

// Values maps a registration onto the configured form entries. Unmapped fields are left out.
func (s *Submitter) Values(r *models.Registration) url.Values {
	source := map[string]string{
		"eventId":                r.EventID,
		"eventTitle":             r.EventTitle,
		"fullName":               r.FullName,
		"email":                  r.Email,
		"phone":                  r.Phone,
		"schoolCollegeWorkplace": r.SchoolCollegeWorkplace,
		"heardAboutFrom":         r.HeardAboutFrom,
		"registrationType":       r.RegistrationType,
	}
	if r.YearOfStudy != nil {
		source["yearOfStudy"] = *r.YearOfStudy
	}
	if r.TransactionID != nil {
		source["transactionId"] = *r.TransactionID
	}

	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := url.Values{}
	for _, k := range keys {
		if val, ok := source[k]; ok && val != "" {
			v.Set(s.fields[k], val)
		}
	}
	return v
}

// Submit posts r to the form.
func (s *Submitter) Submit(ctx context.Context, r *models.Registration) error {
	if !s.Configured() {
		return fmt.Errorf("google form not configured")
	}
	body := s.Values(r).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.actionURL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit form: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("submit form: status %d", resp.StatusCode)
	}
	s.logger.Debug("google form submitted", zap.String("registration_id", r.ID), zap.Int("status", resp.StatusCode))
	return nil
}
