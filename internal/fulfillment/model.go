package fulfillment

import "encoding/json"

// RequestedLine is one equipment line from a quote draft.
type RequestedLine struct {
	EquipmentID string `json:"equipmentId"`
	Quantity    int    `json:"quantity"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
}

// InventoryRecord is the on-hand stock for one catalog item at lookup time.
type InventoryRecord struct {
	CatalogID         string
	QuantityOwned     int
	QuantityAvailable int
	StorageLocation   string
	SerialNumbers     []string
	IsActive          bool
}

type Source int

const (
	SourcePartner Source = iota
	SourceBase
)

// AllocatedLine is a requested line (or part of one) assigned to a source.
// Storage location and serials are only set for base lines.
type AllocatedLine struct {
	RequestedLine
	Source          Source
	StorageLocation string
	SerialNumbers   []string
}

func (l AllocatedLine) MarshalJSON() ([]byte, error) {
	if l.Source != SourceBase {
		return json.Marshal(l.RequestedLine)
	}
	serials := l.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	return json.Marshal(struct {
		RequestedLine
		StorageLocation string   `json:"storageLocation"`
		SerialNumbers   []string `json:"serialNumbers"`
	}{l.RequestedLine, l.StorageLocation, serials})
}

type Summary struct {
	BaseItems    int `json:"baseItems"`
	PartnerItems int `json:"partnerItems"`
	TotalItems   int `json:"totalItems"`
}

type AllocationResult struct {
	BasePullList     []AllocatedLine `json:"basePullList"`
	PartnerOrderList []AllocatedLine `json:"partnerOrderList"`
	Summary          Summary         `json:"summary"`
}
