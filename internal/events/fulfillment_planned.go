package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/fulfillment"
)

const (
	EventTypeFulfillmentPlanned = "FulfillmentPlanned"
	fulfillmentPlannedSchema    = "contracts/events/rental/FulfillmentPlanned.v1.payload.schema.json"
)

type FulfillmentPlannedPayload struct {
	PlanID       string        `json:"planId"`
	BaseItems    int           `json:"baseItems"`
	PartnerItems int           `json:"partnerItems"`
	TotalItems   int           `json:"totalItems"`
	BasePull     []PlannedLine `json:"basePullList"`
	PartnerOrder []PlannedLine `json:"partnerOrderList"`
	Timestamp    time.Time     `json:"timestamp"`
}

type PlannedLine struct {
	EquipmentID string `json:"equipmentId"`
	Quantity    int    `json:"quantity"`
}

type FulfillmentPlannedEvent struct {
	EventEnvelope
	Payload FulfillmentPlannedPayload `json:"payload"`
}

type LegacyFulfillmentPlanned struct {
	EventType string `json:"eventType"`
	FulfillmentPlannedPayload
}

func fulfillmentPlannedPayload(planID string, res fulfillment.AllocationResult, ts time.Time) FulfillmentPlannedPayload {
	return FulfillmentPlannedPayload{
		PlanID:       planID,
		BaseItems:    res.Summary.BaseItems,
		PartnerItems: res.Summary.PartnerItems,
		TotalItems:   res.Summary.TotalItems,
		BasePull:     plannedLines(res.BasePullList),
		PartnerOrder: plannedLines(res.PartnerOrderList),
		Timestamp:    ts,
	}
}

func plannedLines(lines []fulfillment.AllocatedLine) []PlannedLine {
	out := make([]PlannedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, PlannedLine{EquipmentID: l.EquipmentID, Quantity: l.Quantity})
	}
	return out
}
