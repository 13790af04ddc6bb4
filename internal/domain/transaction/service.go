package transaction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sentinel errors for HTTP mapping.
var (
	ErrNotFound              = errors.New("transaction not found")
	ErrDuplicateContribution = errors.New("sender already has a contribution transaction")
)

// Service orchestrates cash-book logic.
type Service struct {
	repo      Repository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a Service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		validator: validator.New(),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
		now:       time.Now,
	}
}

// List returns lines newest first, optionally filtered by exact description.
func (s *Service) List(ctx context.Context, description string) ([]Transaction, error) {
	return s.repo.List(ctx, strings.TrimSpace(description))
}

// Create records a new line.
func (s *Service) Create(ctx context.Context, req Request) (*Transaction, error) {
	t, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.guardContribution(ctx, t, 0); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("transaction recorded", zap.Int64("id", t.ID), zap.String("type", t.Type), zap.Int64("amount", t.Amount))
	return t, nil
}

// Update replaces every field of line id.
func (s *Service) Update(ctx context.Context, id int64, req Request) (*Transaction, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.build(req)
	if err != nil {
		return nil, err
	}
	t.ID = id
	if req.OccurredAt == nil {
		t.OccurredAt = existing.OccurredAt
	}
	if err := s.guardContribution(ctx, t, id); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t.UpdatedAt = &now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes line id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Revenue totals revenue lines.
func (s *Service) Revenue(ctx context.Context) (int64, error) {
	return s.repo.SumByType(ctx, TypeRevenue)
}

// Expense totals expense lines.
func (s *Service) Expense(ctx context.Context) (int64, error) {
	return s.repo.SumByType(ctx, TypeExpense)
}

// Summary computes both totals concurrently.
func (s *Service) Summary(ctx context.Context) (CashSummary, error) {
	var out CashSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.Revenue(gctx)
		out.Revenue = v
		return err
	})
	g.Go(func() error {
		v, err := s.Expense(gctx)
		out.Expense = v
		return err
	})
	if err := g.Wait(); err != nil {
		return CashSummary{}, err
	}
	out.Balance = out.Revenue - out.Expense
	return out, nil
}

func (s *Service) build(req Request) (*Transaction, error) {
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Description = strings.TrimSpace(s.sanitizer.Sanitize(req.Description))
	req.Sender = strings.TrimSpace(s.sanitizer.Sanitize(req.Sender))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	t := &Transaction{
		OccurredAt:  s.now().UTC(),
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		Sender:      req.Sender,
	}
	if req.OccurredAt != nil {
		t.OccurredAt = req.OccurredAt.UTC()
	}
	return t, nil
}

func (s *Service) guardContribution(ctx context.Context, t *Transaction, excludeID int64) error {
	if !strings.EqualFold(t.Description, ContributionDescription) {
		return nil
	}
	exists, err := s.repo.HasContribution(ctx, t.Sender, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateContribution
	}
	return nil
}
