package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Routing keys.
const (
	RoutingOverrideSaved   = "override.saved"
	RoutingPaymentReminder = "payment.reminder"
)

// Message is anything the client can publish.
type Message interface {
	RoutingKey() string
	MessageID() string
	ToJSON() ([]byte, error)
}

// OverrideSavedMessage announces that the override of an item for a month
// was written. Consumers reload the month from the store.
type OverrideSavedMessage struct {
	ID         string    `json:"id"`
	OverrideID int64     `json:"override_id"`
	ItemID     int64     `json:"item_id"`
	Month      string    `json:"month"` // YYYY-MM
	Date       string    `json:"date"`  // YYYY-MM-DD
	Amount     int64     `json:"amount"`
	Paid       bool      `json:"paid"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewOverrideSavedMessage(overrideID, itemID int64, month, date string, amount int64, paid bool) *OverrideSavedMessage {
	return &OverrideSavedMessage{
		ID:         uuid.NewString(),
		OverrideID: overrideID,
		ItemID:     itemID,
		Month:      month,
		Date:       date,
		Amount:     amount,
		Paid:       paid,
		Timestamp:  time.Now(),
	}
}

func (m *OverrideSavedMessage) RoutingKey() string      { return RoutingOverrideSaved }
func (m *OverrideSavedMessage) MessageID() string       { return m.ID }
func (m *OverrideSavedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func OverrideSavedMessageFromJSON(data []byte) (*OverrideSavedMessage, error) {
	var msg OverrideSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReminderMessage tells an account owner how much must be on the account
// and by when.
type ReminderMessage struct {
	ID          string    `json:"id"`
	Month       string    `json:"month"`
	Account     string    `json:"account"`
	PayDeadline string    `json:"pay_deadline"`
	Total       int64     `json:"total"`
	Lines       []string  `json:"lines"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewReminderMessage(month, account, deadline string, total int64, lines []string) *ReminderMessage {
	return &ReminderMessage{
		ID:          uuid.NewString(),
		Month:       month,
		Account:     account,
		PayDeadline: deadline,
		Total:       total,
		Lines:       lines,
		Timestamp:   time.Now(),
	}
}

func (m *ReminderMessage) RoutingKey() string      { return RoutingPaymentReminder }
func (m *ReminderMessage) MessageID() string       { return m.ID }
func (m *ReminderMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
