package fulfillment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/inventory"
)

// InventoryReader loads the active inventory rows for a set of catalog ids.
type InventoryReader interface {
	ActiveByCatalogIDs(ctx context.Context, catalogIDs []string) ([]inventory.Item, error)
}

// PlanPublisher announces a generated plan. Implementations must be safe to
// call after the response has been computed; failures never fail a plan.
type PlanPublisher interface {
	PublishFulfillmentPlanned(ctx context.Context, result AllocationResult) error
}

// Recorder observes allocation outcomes.
type Recorder interface {
	ObserveAllocation(outcome Outcome, units int)
}

type Service struct {
	inv      InventoryReader
	pub      PlanPublisher
	recorder Recorder
	logger   *zap.Logger
}

type Option func(*Service)

func WithPublisher(p PlanPublisher) Option { return func(s *Service) { s.pub = p } }

func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

func NewService(inv InventoryReader, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{inv: inv, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Plan fetches one inventory record per distinct equipment id and allocates
// the requested lines against that snapshot.
func (s *Service) Plan(ctx context.Context, lines []RequestedLine) (AllocationResult, error) {
	if err := Validate(lines); err != nil {
		return AllocationResult{}, err
	}

	items, err := s.inv.ActiveByCatalogIDs(ctx, distinctIDs(lines))
	if err != nil {
		return AllocationResult{}, fmt.Errorf("load inventory snapshot: %w", err)
	}

	records := make([]InventoryRecord, 0, len(items))
	for _, it := range items {
		records = append(records, InventoryRecord{
			CatalogID:         it.CatalogID,
			QuantityOwned:     it.QuantityOwned,
			QuantityAvailable: it.QuantityAvailable,
			StorageLocation:   it.StorageLocation,
			SerialNumbers:     it.SerialNumbers,
			IsActive:          it.IsActive,
		})
	}

	snapshot := NewSnapshot(records)
	res, err := Allocate(lines, snapshot.Lookup)
	if err != nil {
		return AllocationResult{}, err
	}

	if s.recorder != nil {
		for _, line := range lines {
			rec, ok := snapshot.Lookup(line.EquipmentID)
			s.recorder.ObserveAllocation(classify(line.Quantity, availableQuantity(rec, ok)), line.Quantity)
		}
	}

	s.logger.Info("fulfillment planned",
		zap.Int("lines", len(lines)),
		zap.Int("base_items", res.Summary.BaseItems),
		zap.Int("partner_items", res.Summary.PartnerItems),
		zap.Int("total_items", res.Summary.TotalItems),
	)

	if s.pub != nil {
		if err := s.pub.PublishFulfillmentPlanned(ctx, res); err != nil {
			s.logger.Warn("publish fulfillment planned", zap.Error(err))
		}
	}

	return res, nil
}

func distinctIDs(lines []RequestedLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.EquipmentID]; ok {
			continue
		}
		seen[l.EquipmentID] = struct{}{}
		ids = append(ids, l.EquipmentID)
	}
	return ids
}
