package types

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies the payload type carried by a message.
type EventKind string

const (
	EventPriceUpdated        EventKind = "price_updated"
	EventAveragePriceUpdated EventKind = "average_price_updated"
	EventSignal              EventKind = "signal"
	EventOrderExecuted       EventKind = "order_executed"
	EventValuation           EventKind = "valuation"
)

// Payload is implemented by every event that travels through the pipeline.
type Payload interface {
	// Kind identifies the concrete event type.
	Kind() EventKind
	// Tick returns the tick index the event belongs to.
	Tick() int64
}

// Metadata carries message identity and lineage. CorrelationID ties every
// message derived from the same root price observation together;
// CausationID points at the direct parent message.
type Metadata struct {
	ID            uuid.UUID
	Created       time.Time
	CorrelationID uuid.UUID
	CausationID   uuid.UUID
}

// Message is the envelope exchanged between pipeline stages.
type Message struct {
	Data Payload
	Meta Metadata
}

// NewMessage wraps a payload into a fresh root message. The message is its
// own correlation root.
func NewMessage(data Payload) Message {
	id := uuid.New()

	return Message{
		Data: data,
		Meta: Metadata{
			ID:            id,
			Created:       time.Now().UTC(),
			CorrelationID: id,
			CausationID:   id,
		},
	}
}

// Derive wraps a payload into a message caused by m, inheriting m's
// correlation root.
func (m Message) Derive(data Payload) Message {
	return Message{
		Data: data,
		Meta: Metadata{
			ID:            uuid.New(),
			Created:       time.Now().UTC(),
			CorrelationID: m.Meta.CorrelationID,
			CausationID:   m.Meta.ID,
		},
	}
}
