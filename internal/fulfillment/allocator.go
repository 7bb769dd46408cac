package fulfillment

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid input")

// InventoryLookup resolves the on-hand record for an equipment id.
// The boolean is false when no record exists.
type InventoryLookup func(equipmentID string) (InventoryRecord, bool)

// Snapshot is an in-memory lookup keyed by catalog id.
type Snapshot map[string]InventoryRecord

func NewSnapshot(records []InventoryRecord) Snapshot {
	s := make(Snapshot, len(records))
	for _, rec := range records {
		s[rec.CatalogID] = rec
	}
	return s
}

func (s Snapshot) Lookup(equipmentID string) (InventoryRecord, bool) {
	rec, ok := s[equipmentID]
	return rec, ok
}

// Outcome is how a single requested line is sourced.
type Outcome int

const (
	OutcomePartner Outcome = iota
	OutcomeSplit
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInternal:
		return "internal"
	case OutcomeSplit:
		return "split"
	case OutcomePartner:
		return "partner"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func classify(requested, available int) Outcome {
	switch {
	case available >= requested:
		return OutcomeInternal
	case available > 0:
		return OutcomeSplit
	default:
		return OutcomePartner
	}
}

// Allocate partitions the requested lines between on-hand stock and the rental
// partner. It does not mutate the inventory it reads; two concurrent calls may
// allocate the same units.
func Allocate(lines []RequestedLine, lookup InventoryLookup) (AllocationResult, error) {
	if err := Validate(lines); err != nil {
		return AllocationResult{}, err
	}
	if lookup == nil {
		lookup = Snapshot(nil).Lookup
	}

	res := AllocationResult{
		BasePullList:     make([]AllocatedLine, 0, len(lines)),
		PartnerOrderList: make([]AllocatedLine, 0),
	}

	for _, line := range lines {
		rec, found := lookup(line.EquipmentID)
		available := availableQuantity(rec, found)

		switch classify(line.Quantity, available) {
		case OutcomeInternal:
			res.BasePullList = append(res.BasePullList, baseLine(line, line.Quantity, rec))
		case OutcomeSplit:
			res.BasePullList = append(res.BasePullList, baseLine(line, available, rec))
			partner := line
			partner.Quantity = line.Quantity - available
			res.PartnerOrderList = append(res.PartnerOrderList, AllocatedLine{RequestedLine: partner, Source: SourcePartner})
		case OutcomePartner:
			res.PartnerOrderList = append(res.PartnerOrderList, AllocatedLine{RequestedLine: line, Source: SourcePartner})
		}
	}

	res.Summary = Summary{
		BaseItems:    sumQuantities(res.BasePullList),
		PartnerItems: sumQuantities(res.PartnerOrderList),
	}
	for _, line := range lines {
		res.Summary.TotalItems += line.Quantity
	}

	return res, nil
}

// Validate rejects an empty request or any line without an id or with a
// non-positive quantity.
func Validate(lines []RequestedLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no items requested", ErrInvalidInput)
	}
	for i, line := range lines {
		if line.EquipmentID == "" {
			return fmt.Errorf("%w: item %d is missing equipmentId", ErrInvalidInput, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has non-positive quantity %d", ErrInvalidInput, i, line.Quantity)
		}
	}
	return nil
}

// availableQuantity is zero for missing or inactive records and never exceeds
// the owned quantity when one is recorded.
func availableQuantity(rec InventoryRecord, found bool) int {
	if !found || !rec.IsActive || rec.QuantityAvailable <= 0 {
		return 0
	}
	if rec.QuantityOwned > 0 && rec.QuantityAvailable > rec.QuantityOwned {
		return rec.QuantityOwned
	}
	return rec.QuantityAvailable
}

func baseLine(line RequestedLine, quantity int, rec InventoryRecord) AllocatedLine {
	line.Quantity = quantity
	return AllocatedLine{
		RequestedLine:   line,
		Source:          SourceBase,
		StorageLocation: rec.StorageLocation,
		SerialNumbers:   serialPrefix(rec.SerialNumbers, quantity),
	}
}

// serialPrefix returns the first n serials, or all of them when fewer than n
// are on record.
func serialPrefix(serials []string, n int) []string {
	n = min(n, len(serials))
	out := make([]string, n)
	copy(out, serials[:n])
	return out
}

func sumQuantities(lines []AllocatedLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}
