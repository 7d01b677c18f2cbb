package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicTransactionCreated       = "transaction.created"
	MessageTypeTransactionCreated = "TransactionCreatedEvent"
)

// Envelope wraps every published event.
type Envelope struct {
	MessageType string    `json:"messageType"`
	OccurredAt  time.Time `json:"occurredAt"`
	Payload     any       `json:"payload"`
}

// NewEnvelope tags payload with its message type and the current UTC time.
func NewEnvelope(messageType string, payload any) Envelope {
	return Envelope{
		MessageType: messageType,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// RawEnvelope is the decoding side of Envelope, with the payload left undecoded.
type RawEnvelope struct {
	MessageType string          `json:"messageType"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Payload     json.RawMessage `json:"payload"`
}

// TransactionCreated is the payload announced after a transaction is persisted.
type TransactionCreated struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	CategoryID    string          `json:"categoryId"`
	PersonID      string          `json:"personId"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewTransactionCreated builds the event payload from a persisted transaction.
func NewTransactionCreated(t *Transaction) TransactionCreated {
	return TransactionCreated{
		TransactionID: t.ID(),
		Amount:        t.Amount().Value(),
		Type:          t.Type(),
		CategoryID:    t.CategoryID(),
		PersonID:      t.PersonID(),
		Date:          t.Date(),
		CreatedAt:     t.CreatedAt(),
	}
}

// Validate checks the fields a consumer needs before acting on the event.
func (e TransactionCreated) Validate() error {
	if e.TransactionID == "" {
		return NewInvalidArgument("transactionId", "is required")
	}
	if e.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if err := checkScale("amount", e.Amount); err != nil {
		return err
	}
	if !e.Type.Valid() {
		return NewInvalidArgument("type", "must be one of income, expense")
	}
	return nil
}
