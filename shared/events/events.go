package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	CustomerRegistered = "customer.registered"
	CustomerUpdated    = "customer.updated"

	AccountOpened  = "account.opened"
	AccountUpdated = "account.updated"
	AccountClosed  = "account.closed"

	RatePublished = "rate.published"
)

// Stream names
const (
	CustomerEventsStream = "customer.events"
	AccountEventsStream  = "account.events"
	RateEventsStream     = "rate.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode re-reads Data into a typed payload. Data arrives as a generic map
// after a round trip through the stream.
func (e Event) Decode(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", e.Type, err)
	}
	return nil
}

// Customer events
type CustomerRegisteredEvent struct {
	CustomerID int64  `json:"custId"`
	UserName   string `json:"userName"`
}

type CustomerUpdatedEvent struct {
	CustomerID int64  `json:"custId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}

// Account events
type AccountOpenedEvent struct {
	CustomerID    int64  `json:"custId"`
	AccountType   string `json:"acctType"`
	AccountNumber string `json:"acctNo"`
	LoanType      string `json:"loanType,omitempty"`
}

type AccountUpdatedEvent struct {
	CustomerID  int64  `json:"custId"`
	AccountType string `json:"acctType"`
	Name        string `json:"acctName"`
}

type AccountClosedEvent struct {
	CustomerID  int64  `json:"custId"`
	AccountType string `json:"acctType"`
}

// Rate events
type RatePublishedEvent struct {
	RateID  int64 `json:"rateId"`
	Version int   `json:"version"`
}
