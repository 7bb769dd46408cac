package inventory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Service orchestrates pull commits on top of the Repository.
// It adds basic idempotency keyed by a pull reference (usually a quote id) to
// avoid double-decrementing stock if the same pull is submitted twice.
// Concurrent calls for one reference share a single repository call.
type Service struct {
	repo     Repository
	inflight singleflight.Group

	mu        sync.Mutex
	completed map[string]PullResult
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		completed: make(map[string]PullResult),
	}
}

func (s *Service) CommitPull(ctx context.Context, reference string, lines []Line) (PullResult, error) {
	if reference == "" {
		return PullResult{}, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}
	if len(lines) == 0 {
		return PullResult{}, fmt.Errorf("%w: no lines to pull", ErrInvalidInput)
	}
	for i, ln := range lines {
		if ln.CatalogID == "" || ln.Quantity <= 0 {
			return PullResult{}, fmt.Errorf("%w: line %d", ErrInvalidInput, i)
		}
	}

	v, err, _ := s.inflight.Do(reference, func() (any, error) {
		s.mu.Lock()
		res, ok := s.completed[reference]
		s.mu.Unlock()
		if ok {
			return res, nil
		}

		res, err := s.repo.CommitPull(ctx, lines)
		if err != nil {
			return PullResult{}, err
		}

		// Short pulls changed nothing and may be retried once stock is back.
		if len(res.Short) == 0 {
			s.mu.Lock()
			s.completed[reference] = res
			s.mu.Unlock()
		}
		return res, nil
	})
	if err != nil {
		return PullResult{}, err
	}
	return v.(PullResult), nil
}
