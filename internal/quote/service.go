package quote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/catalog"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidInput  = errors.New("invalid input")
)

const (
	dateLayout       = "2006-01-02"
	depositRate      = 0.5
	maxNumberRetries = 3
)

// EstimateCreator mirrors a new quote into the accounting system.
type EstimateCreator interface {
	CreateEstimate(ctx context.Context, in Input) (EstimateRef, error)
}

type CreatedPublisher interface {
	PublishQuoteCreated(ctx context.Context, q Quote) error
}

type EstimateRecorder interface {
	ObserveEstimate(err error)
}

type Page struct {
	Data       []Quote            `json:"data"`
	Pagination catalog.Pagination `json:"pagination"`
}

type Service struct {
	repo      Repository
	logger    *zap.Logger
	estimates EstimateCreator
	publisher CreatedPublisher
	recorder  EstimateRecorder

	now  func() time.Time
	intn func(int) int
}

type Option func(*Service)

func WithEstimates(e EstimateCreator) Option { return func(s *Service) { s.estimates = e } }

func WithPublisher(p CreatedPublisher) Option { return func(s *Service) { s.publisher = p } }

func WithRecorder(r EstimateRecorder) Option { return func(s *Service) { s.recorder = r } }

func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		intn:   defaultIntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores the quote and its items, records the requester as a lead and
// then mirrors the quote to the accounting system. Only the quote insert can
// fail the request; lead, estimate and event failures are logged.
func (s *Service) Create(ctx context.Context, in Input) (Created, error) {
	if err := validate(in); err != nil {
		return Created{}, err
	}

	q := Quote{
		ClientName:      strings.TrimSpace(in.ClientName),
		ClientEmail:     strings.TrimSpace(in.ClientEmail),
		ClientPhone:     in.ClientPhone,
		ClientCompany:   in.ClientCompany,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		DurationDays:    durationDays(in),
		Status:          StatusPending,
		Pricing:         in.Pricing,
		Notes:           in.Notes,
		DepositRequired: math.Round(in.Pricing.Total*depositRate*100) / 100,
	}

	var stored Quote
	var err error
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		q.QuoteNumber = newNumber(s.now(), s.intn)
		stored, err = s.repo.Create(ctx, q, in.Items)
		if !errors.Is(err, ErrDuplicateNumber) {
			break
		}
		s.logger.Warn("quote number collision, retrying", zap.String("quoteNumber", q.QuoteNumber))
	}
	if err != nil {
		return Created{}, fmt.Errorf("create quote: %w", err)
	}

	log := s.logger.With(zap.String("quoteId", stored.ID), zap.String("quoteNumber", stored.QuoteNumber))

	if err := s.repo.UpsertLead(ctx, Lead{
		Name:    q.ClientName,
		Email:   q.ClientEmail,
		Phone:   in.ClientPhone,
		Company: in.ClientCompany,
	}); err != nil {
		log.Warn("lead upsert failed", zap.Error(err))
	}

	out := Created{
		Success: true,
		Quote:   Summary{ID: stored.ID, QuoteNumber: stored.QuoteNumber, Total: in.Pricing.Total},
	}

	if s.estimates != nil {
		in.Duration = q.DurationDays
		ref, err := s.estimates.CreateEstimate(ctx, in)
		if s.recorder != nil {
			s.recorder.ObserveEstimate(err)
		}
		if err != nil {
			log.Warn("quickbooks estimate failed", zap.Error(err))
		} else {
			log.Info("quickbooks estimate created", zap.String("estimateId", ref.ID))
			out.QBEstimate = &ref
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishQuoteCreated(ctx, stored); err != nil {
			log.Warn("publish QuoteCreated failed", zap.Error(err))
		}
	}

	log.Info("quote created", zap.Int("items", len(in.Items)), zap.Float64("total", in.Pricing.Total))
	return out, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) (Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = catalog.DefaultLimit
	}
	if f.Limit > catalog.MaxLimit {
		f.Limit = catalog.MaxLimit
	}
	quotes, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Data: quotes, Pagination: catalog.NewPagination(f.Page, f.Limit, total)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Quote, error) {
	return s.repo.Get(ctx, id)
}

func validate(in Input) error {
	if strings.TrimSpace(in.ClientName) == "" ||
		strings.TrimSpace(in.ClientEmail) == "" ||
		in.StartDate == "" ||
		in.EndDate == "" ||
		len(in.Items) == 0 {
		return ErrMissingFields
	}

	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrInvalidInput)
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrInvalidInput)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	}

	for i, it := range in.Items {
		if it.EquipmentID == "" || it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d needs equipmentId and a positive quantity", ErrInvalidInput, i)
		}
	}
	return nil
}

// durationDays falls back to the inclusive day count between the dates when
// the request carries no duration.
func durationDays(in Input) int {
	if in.Duration > 0 {
		return in.Duration
	}
	start, _ := time.Parse(dateLayout, in.StartDate)
	end, _ := time.Parse(dateLayout, in.EndDate)
	return int(end.Sub(start).Hours()/24) + 1
}
