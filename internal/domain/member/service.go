package member

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Sentinel errors for HTTP mapping.
var (
	ErrNotFound      = errors.New("member not found")
	ErrDuplicate     = errors.New("cin or email already registered")
	ErrPhotoType     = errors.New("unsupported photo type")
	ErrPhotoTooLarge = errors.New("photo too large")
	ErrBirthDate     = errors.New("birthDate must be YYYY-MM-DD")
)

// Dues is the contribution ledger as seen from members: it seeds a new
// member's year and drops cached reports that embed member rows or names.
type Dues interface {
	SeedYear(ctx context.Context, memberID int64, year int) error
	InvalidateReports(ctx context.Context)
}

// PhotoStore persists uploaded member photos.
type PhotoStore interface {
	Save(ctx context.Context, r io.Reader, ext string) (string, error)
	Remove(name string) error
}

// PhotoPolicy bounds accepted uploads.
type PhotoPolicy struct {
	MaxBytes   int64
	Extensions []string
}

// Service orchestrates member logic.
type Service struct {
	repo      Repository
	dues      Dues
	photos    PhotoStore
	policy    PhotoPolicy
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
	now       func() time.Time
}

// NewService provides a member service. dues and photos may be nil.
func NewService(repo Repository, dues Dues, photos PhotoStore, policy PhotoPolicy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		dues:      dues,
		photos:    photos,
		policy:    policy,
		validator: validator.New(),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
		now:       time.Now,
	}
}

// Create registers a member and seeds the current year's dues.
func (s *Service) Create(ctx context.Context, req Request) (*Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	m := &Member{CreatedAt: now, UpdatedAt: now}
	if err := s.apply(m, req); err != nil {
		return nil, err
	}
	conflict, err := s.repo.HasConflict(ctx, m.CIN, m.Email, 0)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrDuplicate
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	if s.dues != nil {
		if err := s.dues.SeedYear(ctx, m.ID, now.Year()); err != nil {
			s.logger.Warn("seed member contributions failed", zap.Int64("member_id", m.ID), zap.Error(err))
		}
	}
	return m, nil
}

// Get fetches a member by id.
func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns paginated members.
func (s *Service) List(ctx context.Context, filter Filter) ([]Member, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// Count returns the number of members.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Update performs PUT semantics.
func (s *Service) Update(ctx context.Context, id int64, req Request) (*Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(m, req); err != nil {
		return nil, err
	}
	conflict, err := s.repo.HasConflict(ctx, m.CIN, m.Email, id)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrDuplicate
	}
	m.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return m, nil
}

// Delete removes a member together with its photo.
func (s *Service) Delete(ctx context.Context, id int64) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	s.removePhoto(m.Photo)
	return nil
}

// SetTitle assigns or clears a bureau title.
func (s *Service) SetTitle(ctx context.Context, id int64, req TitleRequest) (*Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Title = optional(s.clean(req.Title))
	if err := s.repo.SetTitle(ctx, id, m.Title); err != nil {
		return nil, err
	}
	return m, nil
}

// UploadPhoto stores a new photo and replaces the previous one.
func (s *Service) UploadPhoto(ctx context.Context, id int64, filename string, size int64, r io.Reader) (*Member, error) {
	if s.photos == nil {
		return nil, errors.New("photo storage not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedExt(ext) {
		return nil, ErrPhotoType
	}
	if s.policy.MaxBytes > 0 && size > s.policy.MaxBytes {
		return nil, ErrPhotoTooLarge
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err := s.photos.Save(ctx, r, ext)
	if err != nil {
		return nil, fmt.Errorf("save photo: %w", err)
	}
	if err := s.repo.SetPhoto(ctx, id, name); err != nil {
		s.removePhoto(&name)
		return nil, err
	}
	s.removePhoto(m.Photo)
	m.Photo = &name
	return m, nil
}

// PhoneRegistered reports whether a member owns phone.
func (s *Service) PhoneRegistered(ctx context.Context, phone string) (bool, error) {
	return s.repo.ExistsByPhone(ctx, strings.TrimSpace(phone))
}

func (s *Service) apply(m *Member, req Request) error {
	m.FirstName = s.clean(req.FirstName)
	m.LastName = s.clean(req.LastName)
	m.CIN = strings.TrimSpace(req.CIN)
	m.Phone = strings.TrimSpace(req.Phone)
	m.Email = nil
	if req.Email != nil {
		m.Email = optional(strings.ToLower(strings.TrimSpace(*req.Email)))
	}
	m.FacebookName = s.cleanOptional(req.FacebookName)
	m.Profession = s.cleanOptional(req.Profession)
	m.Height = req.Height
	m.BirthDate = nil
	if req.BirthDate != nil && *req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return ErrBirthDate
		}
		t = t.UTC()
		m.BirthDate = &t
	}
	return nil
}

func (s *Service) invalidateReports(ctx context.Context) {
	if s.dues != nil {
		s.dues.InvalidateReports(ctx)
	}
}

func (s *Service) allowedExt(ext string) bool {
	if len(s.policy.Extensions) == 0 {
		return ext != ""
	}
	for _, allowed := range s.policy.Extensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (s *Service) removePhoto(name *string) {
	if s.photos == nil || name == nil || *name == "" {
		return
	}
	if err := s.photos.Remove(*name); err != nil {
		s.logger.Warn("remove member photo failed", zap.String("photo", *name), zap.Error(err))
	}
}

func (s *Service) clean(val string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(val))
}

func (s *Service) cleanOptional(val *string) *string {
	if val == nil {
		return nil
	}
	return optional(s.clean(*val))
}

func optional(val string) *string {
	if val == "" {
		return nil
	}
	return &val
}
