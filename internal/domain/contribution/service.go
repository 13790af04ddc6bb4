package contribution

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Sentinel errors for HTTP mapping.
var (
	ErrNotFound  = errors.New("contribution not found")
	ErrDuplicate = errors.New("contribution already recorded")
)

// ReportCache stores computed quarterly reports by key.
type ReportCache interface {
	Get(ctx context.Context, key string) (*QuarterlyReport, bool)
	Set(ctx context.Context, key string, value *QuarterlyReport)
	Delete(ctx context.Context, key string)
	DeletePrefix(ctx context.Context, prefix string)
}

// AmountSource supplies the configured monthly dues amount.
type AmountSource interface {
	DuesAmount(ctx context.Context) (int64, error)
}

// PaymentObserver is notified after a payment flag changes.
type PaymentObserver func(paid bool)

// Service orchestrates contribution logic.
type Service struct {
	repo      Repository
	cache     ReportCache
	amounts   AmountSource
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	observe   PaymentObserver
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPaymentObserver registers a payment hook, typically a metrics counter.
func WithPaymentObserver(fn PaymentObserver) Option {
	return func(s *Service) { s.observe = fn }
}

// NewService wires a Service. cache may be nil.
func NewService(repo Repository, cache ReportCache, amounts AmountSource, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:      repo,
		cache:     cache,
		amounts:   amounts,
		validator: validator.New(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report builds the quarterly payment report for year (0 means current year).
func (s *Service) Report(ctx context.Context, year int) (*QuarterlyReport, error) {
	year = s.resolveYear(year)
	key := reportKey(year)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}
	rows, err := s.repo.ListYearRows(ctx, year)
	if err != nil {
		return nil, err
	}
	if err := ValidateRows(rows); err != nil {
		return nil, err
	}
	report := Aggregate(rows)
	if s.cache != nil {
		s.cache.Set(ctx, key, &report)
	}
	return &report, nil
}

// MemberContributions lists a member's rows for year (0 means current year).
func (s *Service) MemberContributions(ctx context.Context, memberID int64, year int) ([]Contribution, error) {
	return s.repo.ListByMember(ctx, memberID, s.resolveYear(year))
}

// Create records a single contribution line.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Contribution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, req.MemberID, req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}
	c := &Contribution{
		MemberID:  req.MemberID,
		Month:     req.Month,
		Year:      req.Year,
		Amount:    req.Amount,
		CreatedAt: s.now().UTC(),
	}
	if req.PaidAt != nil {
		paidAt := req.PaidAt.UTC()
		c.Paid = true
		c.PaidAt = &paidAt
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, c.Year)
	return c, nil
}

// SetPayment marks a member's month as paid or unpaid.
func (s *Service) SetPayment(ctx context.Context, req PaymentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	year := s.resolveYear(req.Year)
	var paidAt *time.Time
	if *req.Paid {
		now := s.now().UTC()
		paidAt = &now
	}
	if err := s.repo.SetPaid(ctx, req.MemberID, req.Month, year, *req.Paid, paidAt); err != nil {
		return err
	}
	s.invalidate(ctx, year)
	if s.observe != nil {
		s.observe(*req.Paid)
	}
	return nil
}

// Delete removes a contribution line.
func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, c.Year)
	return nil
}

// SeedYear creates the twelve unpaid months of year for a new member.
func (s *Service) SeedYear(ctx context.Context, memberID int64, year int) error {
	year = s.resolveYear(year)
	amount, err := s.amounts.DuesAmount(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.SeedYear(ctx, memberID, year, amount); err != nil {
		return err
	}
	s.invalidate(ctx, year)
	return nil
}

// SeedMissing fills in the months of year for every member that lacks them.
func (s *Service) SeedMissing(ctx context.Context, year int) (int64, error) {
	year = s.resolveYear(year)
	amount, err := s.amounts.DuesAmount(ctx)
	if err != nil {
		return 0, err
	}
	created, err := s.repo.SeedMissing(ctx, year, amount)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.invalidate(ctx, year)
	}
	s.logger.Info("contribution rows seeded", zap.Int("year", year), zap.Int64("created", created))
	return created, nil
}

func (s *Service) resolveYear(year int) int {
	if year == 0 {
		return s.now().Year()
	}
	return year
}

// InvalidateReports drops every cached report. Member renames and deletions
// change rows of any year, so no single key can be targeted.
func (s *Service) InvalidateReports(ctx context.Context) {
	if s.cache != nil {
		s.cache.DeletePrefix(ctx, reportKeyPrefix)
	}
}

func (s *Service) invalidate(ctx context.Context, year int) {
	if s.cache != nil {
		s.cache.Delete(ctx, reportKey(year))
	}
}

const reportKeyPrefix = "contributions:report:"

func reportKey(year int) string {
	return reportKeyPrefix + strconv.Itoa(year)
}
