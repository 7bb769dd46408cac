package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
)

const (
	EventTypeQuoteCreated = "QuoteCreated"
	quoteCreatedSchema    = "contracts/events/rental/QuoteCreated.v1.payload.schema.json"
)

type QuoteCreatedPayload struct {
	QuoteID     string       `json:"quoteId"`
	QuoteNumber string       `json:"quoteNumber"`
	ClientEmail string       `json:"clientEmail"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Total       float64      `json:"total"`
	Deposit     float64      `json:"depositRequired"`
	Items       []QuotedItem `json:"items"`
	Timestamp   time.Time    `json:"timestamp"`
}

type QuotedItem struct {
	EquipmentID string `json:"equipmentId"`
	Quantity    int    `json:"quantity"`
}

type QuoteCreatedEvent struct {
	EventEnvelope
	Payload QuoteCreatedPayload `json:"payload"`
}

// LegacyQuoteCreated is the flat, pre-envelope shape.
type LegacyQuoteCreated struct {
	EventType string `json:"eventType"`
	QuoteCreatedPayload
}

func quoteCreatedPayload(q quote.Quote, ts time.Time) QuoteCreatedPayload {
	p := QuoteCreatedPayload{
		QuoteID:     q.ID,
		QuoteNumber: q.QuoteNumber,
		ClientEmail: q.ClientEmail,
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
		Total:       q.Pricing.Total,
		Deposit:     q.DepositRequired,
		Items:       make([]QuotedItem, 0, len(q.Items)),
		Timestamp:   ts,
	}
	for _, it := range q.Items {
		p.Items = append(p.Items, QuotedItem{EquipmentID: it.EquipmentID, Quantity: it.Quantity})
	}
	return p
}
