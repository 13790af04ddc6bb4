package setting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DuesAmountKey names the monthly dues amount setting.
const DuesAmountKey = "dues_amount"

// Repository stores named settings as strings.
type Repository interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string, at time.Time) error
}

// DuesRequest updates the monthly dues amount.
type DuesRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// Service exposes typed accessors over the settings table.
type Service struct {
	repo          Repository
	defaultAmount int64
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewService wires a Service; defaultAmount is used until an admin sets one.
func NewService(repo Repository, defaultAmount int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, defaultAmount: defaultAmount, validator: validator.New(), logger: logger}
}

// DuesAmount returns the configured monthly dues.
func (s *Service) DuesAmount(ctx context.Context) (int64, error) {
	raw, ok, err := s.repo.Get(ctx, DuesAmountKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.defaultAmount, nil
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		s.logger.Warn("ignoring malformed dues amount", zap.String("value", raw))
		return s.defaultAmount, nil
	}
	return amount, nil
}

// SetDuesAmount persists a new monthly dues amount.
func (s *Service) SetDuesAmount(ctx context.Context, req DuesRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	if err := s.repo.Set(ctx, DuesAmountKey, strconv.FormatInt(req.Amount, 10), time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("store dues amount: %w", err)
	}
	return req.Amount, nil
}
