// Package domain defines the payment-reminder escalation job contract.
package domain

import "context"

// Service is the daily escalation batch. Run scans overdue invoices and
// advances each into the correct reminder stage or suspends the owning
// organization, then drains due scheduled notifications. At-least-once
// triggering is assumed; the activity log and status guards make repeated
// runs converge on the same final state.
type Service interface {
	Run(ctx context.Context) (*Summary, error)
}

// Summary is the aggregate result of one escalation run.
type Summary struct {
	Stats   Stats   `json:"stats"`
	Details Details `json:"details"`
}

// Stats holds per-action counts for one run.
type Stats struct {
	Total          int `json:"total"`
	FirstReminder  int `json:"firstReminder"`
	SecondReminder int `json:"secondReminder"`
	Suspended      int `json:"suspended"`
	Errors         int `json:"errors"`
}

// Details lists the organizations touched by each action bucket.
type Details struct {
	FirstReminder  []string   `json:"firstReminder"`
	SecondReminder []string   `json:"secondReminder"`
	Suspended      []string   `json:"suspended"`
	Errors         []OrgError `json:"errors"`
}

// OrgError is one isolated per-organization failure.
type OrgError struct {
	Org   string `json:"org"`
	Error string `json:"error"`
}
