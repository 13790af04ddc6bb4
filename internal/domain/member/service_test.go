package member

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	nextID  int64
	members map[int64]Member
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{members: map[int64]Member{}}
}

func (f *fakeRepo) Create(ctx context.Context, m *Member) error {
	f.nextID++
	m.ID = f.nextID
	f.members[m.ID] = *m
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, m *Member) error {
	if _, ok := f.members[m.ID]; !ok {
		return ErrNotFound
	}
	f.members[m.ID] = *m
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.members[id]; !ok {
		return ErrNotFound
	}
	delete(f.members, id)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (f *fakeRepo) List(ctx context.Context, filter Filter) ([]Member, int, error) {
	out := []Member{}
	for _, m := range f.members {
		if filter.Search == "" || strings.Contains(strings.ToLower(m.FullName()), strings.ToLower(filter.Search)) {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) Count(ctx context.Context) (int, error) {
	return len(f.members), nil
}

func (f *fakeRepo) HasConflict(ctx context.Context, cin string, email *string, excludeID int64) (bool, error) {
	for id, m := range f.members {
		if id == excludeID {
			continue
		}
		if m.CIN == cin {
			return true, nil
		}
		if email != nil && m.Email != nil && strings.EqualFold(*email, *m.Email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	for _, m := range f.members {
		if m.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) SetTitle(ctx context.Context, id int64, title *string) error {
	m, ok := f.members[id]
	if !ok {
		return ErrNotFound
	}
	m.Title = title
	f.members[id] = m
	return nil
}

func (f *fakeRepo) SetPhoto(ctx context.Context, id int64, photo string) error {
	m, ok := f.members[id]
	if !ok {
		return ErrNotFound
	}
	m.Photo = &photo
	f.members[id] = m
	return nil
}

type seedCall struct {
	memberID int64
	year     int
}

type fakeSeeder struct {
	calls         []seedCall
	err           error
	invalidations int
}

func (f *fakeSeeder) SeedYear(ctx context.Context, memberID int64, year int) error {
	f.calls = append(f.calls, seedCall{memberID, year})
	return f.err
}

func (f *fakeSeeder) InvalidateReports(ctx context.Context) {
	f.invalidations++
}

type fakePhotos struct {
	saved   map[string][]byte
	removed []string
	n       int
}

func (f *fakePhotos) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.n++
	name := "photo-" + string(rune('0'+f.n)) + ext
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[name] = data
	return name, nil
}

func (f *fakePhotos) Remove(name string) error {
	f.removed = append(f.removed, name)
	return nil
}

func newTestService(repo Repository, seeder Dues, photos PhotoStore) *Service {
	svc := NewService(repo, seeder, photos, PhotoPolicy{MaxBytes: 1024, Extensions: []string{".jpg", ".png"}}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func strPtr(s string) *string { return &s }

func validRequest() Request {
	return Request{
		FirstName: "Amine",
		LastName:  "Alaoui",
		CIN:       "AB123456",
		Phone:     "0600000000",
		Email:     strPtr("Amine@Example.MA"),
		BirthDate: strPtr("1990-04-12"),
	}
}

func TestCreateSeedsCurrentYear(t *testing.T) {
	repo := newFakeRepo()
	seeder := &fakeSeeder{}
	svc := newTestService(repo, seeder, nil)

	m, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, int64(1), m.ID)
	require.Equal(t, "amine@example.ma", *m.Email)
	require.Equal(t, 1990, m.BirthDate.Year())
	require.Equal(t, []seedCall{{1, 2026}}, seeder.calls)
}

func TestCreateSeedFailureIsNotFatal(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSeeder{err: errors.New("db down")}, nil)

	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, repo.members, 1)
}

func TestCreateDuplicateCIN(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Email = nil
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	req := validRequest()
	req.CIN = ""
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	req = validRequest()
	req.BirthDate = strPtr("12/04/1990")
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestUpdateAllowsOwnCIN(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	ctx := context.Background()
	m, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Profession = strPtr("<b>Teacher</b>")
	updated, err := svc.Update(ctx, m.ID, req)
	require.NoError(t, err)
	require.Equal(t, "Teacher", *updated.Profession)

	_, err = svc.Update(ctx, 99, req)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetTitleClears(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	ctx := context.Background()
	m, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	m, err = svc.SetTitle(ctx, m.ID, TitleRequest{Title: "Trésorier"})
	require.NoError(t, err)
	require.Equal(t, "Trésorier", *m.Title)

	m, err = svc.SetTitle(ctx, m.ID, TitleRequest{Title: "  "})
	require.NoError(t, err)
	require.Nil(t, m.Title)
}

func TestUploadPhotoReplacesPrevious(t *testing.T) {
	photos := &fakePhotos{}
	svc := newTestService(newFakeRepo(), nil, photos)
	ctx := context.Background()
	m, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	first, err := svc.UploadPhoto(ctx, m.ID, "me.JPG", 3, strings.NewReader("abc"))
	require.NoError(t, err)
	require.Equal(t, "photo-1.jpg", *first.Photo)

	second, err := svc.UploadPhoto(ctx, m.ID, "me.png", 3, strings.NewReader("def"))
	require.NoError(t, err)
	require.Equal(t, "photo-2.png", *second.Photo)
	require.Equal(t, []string{"photo-1.jpg"}, photos.removed)

	_, err = svc.UploadPhoto(ctx, m.ID, "me.gif", 3, strings.NewReader("x"))
	require.ErrorIs(t, err, ErrPhotoType)
	_, err = svc.UploadPhoto(ctx, m.ID, "me.jpg", 4096, strings.NewReader("x"))
	require.ErrorIs(t, err, ErrPhotoTooLarge)
}

func TestDeleteRemovesPhoto(t *testing.T) {
	photos := &fakePhotos{}
	svc := newTestService(newFakeRepo(), nil, photos)
	ctx := context.Background()
	m, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.UploadPhoto(ctx, m.ID, "me.jpg", 1, strings.NewReader("a"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, m.ID))
	require.Equal(t, []string{"photo-1.jpg"}, photos.removed)
	require.ErrorIs(t, svc.Delete(ctx, m.ID), ErrNotFound)
}

func TestUpdateAndDeleteInvalidateReports(t *testing.T) {
	dues := &fakeSeeder{}
	svc := newTestService(newFakeRepo(), dues, nil)
	ctx := context.Background()
	m, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	require.Zero(t, dues.invalidations)

	req := validRequest()
	req.LastName = "Bennani"
	_, err = svc.Update(ctx, m.ID, req)
	require.NoError(t, err)
	require.Equal(t, 1, dues.invalidations)

	_, err = svc.Update(ctx, 99, req)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, dues.invalidations)

	require.NoError(t, svc.Delete(ctx, m.ID))
	require.Equal(t, 2, dues.invalidations)
	require.ErrorIs(t, svc.Delete(ctx, m.ID), ErrNotFound)
	require.Equal(t, 2, dues.invalidations)
}

func TestPhoneRegistered(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	ok, err := svc.PhoneRegistered(context.Background(), " 0600000000 ")
	require.NoError(t, err)
	require.True(t, ok)
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"), func(c *gin.Context) { c.Next() })
	return router
}

func TestHandlerCreateAndCount(t *testing.T) {
	router := newTestRouter(newTestService(newFakeRepo(), nil, nil))

	body := `{"firstName":"Sara","lastName":"Bennani","cin":"CD1","phone":"0611"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/v1/members/1", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/members/count", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/members/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerUploadPhoto(t *testing.T) {
	photos := &fakePhotos{}
	svc := newTestService(newFakeRepo(), nil, photos)
	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	router := newTestRouter(svc)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", "portrait.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members/1/photo", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"photo":"photo-1.png"}`, rec.Body.String())
	require.Equal(t, []byte("png-bytes"), photos.saved["photo-1.png"])
}
