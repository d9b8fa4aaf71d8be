package handler

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bloodbridge/api/internal/model"
	"github.com/bloodbridge/api/internal/payment"
	"github.com/bloodbridge/api/internal/repository"
)

// In-memory fakes for the store interfaces. They mirror the guarded
// update semantics of the SQL repositories (ErrConflict on status
// mismatch, sql.ErrNoRows on unknown ids) so the handlers are exercised
// against the same error surface without a database.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[uint64]*model.User{}}
}

func (s *fakeUserStore) add(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	if u.Role == "" {
		u.Role = model.RoleDonor
	}
	if u.Status == "" {
		u.Status = model.UserActive
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := u
	s.users[u.ID] = &cp
	return &cp
}

func (s *fakeUserStore) Create(ctx context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	for _, e := range s.users {
		if strings.EqualFold(e.Email, u.Email) {
			s.mu.Unlock()
			return 0, repository.ErrEmailExists
		}
	}
	s.mu.Unlock()
	created := s.add(*u)
	*u = *created
	return created.ID, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) StatusByEmail(ctx context.Context, email string) (string, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Status, nil
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.users[u.ID]
	if !ok {
		return sql.ErrNoRows
	}
	e.Name, e.Image, e.BloodGroup = u.Name, u.Image, u.BloodGroup
	e.DistrictID, e.DistrictName, e.Upazila = u.DistrictID, u.DistrictName, u.Upazila
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeUserStore) SetStatus(ctx context.Context, id uint64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Status = status
	return nil
}

func (s *fakeUserStore) SetRole(ctx context.Context, id uint64, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	return nil
}

func (s *fakeUserStore) List(ctx context.Context, page, limit int, status string) ([]model.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.User
	for _, u := range s.users {
		if status != "" && u.Status != status {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return pageSlice(all, page, limit), len(all), nil
}

func (s *fakeUserStore) SearchDonors(ctx context.Context, bloodGroup string, districtID uint64, upazila string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.users {
		if u.Status != model.UserActive || u.BloodGroup != bloodGroup || u.DistrictID != districtID {
			continue
		}
		if upazila != "" && !strings.EqualFold(u.Upazila, upazila) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) CountByRole(ctx context.Context) (map[string]int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, u := range s.users {
		counts[u.Role]++
	}
	return counts, len(s.users), nil
}

type fakeTokenStore struct {
	mu      sync.Mutex
	byHash  map[string]uint64
	revoked map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byHash: map[string]uint64{}, revoked: map[string]bool{}}
}

func (s *fakeTokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[tokenHash] = userID
	return nil
}

func (s *fakeTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.byHash[tokenHash]
	if !ok || s.revoked[tokenHash] {
		return 0, repository.ErrInvalidRefresh
	}
	return uid, nil
}

func (s *fakeTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenHash] = true
	return nil
}

func (s *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, uid := range s.byHash {
		if uid == userID {
			s.revoked[h] = true
		}
	}
	return nil
}

type fakeRequestStore struct {
	mu       sync.Mutex
	nextID   uint64
	requests map[uint64]*model.DonationRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{nextID: 1, requests: map[uint64]*model.DonationRequest{}}
}

func (s *fakeRequestStore) add(r model.DonationRequest) *model.DonationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	r.AddedAt = time.Now().UTC()
	r.UpdatedAt = r.AddedAt
	cp := r
	s.requests[r.ID] = &cp
	return &cp
}

func (s *fakeRequestStore) Create(ctx context.Context, req *model.DonationRequest) error {
	req.Status = model.StatusPending
	*req = *s.add(*req)
	return nil
}

func (s *fakeRequestStore) GetByID(ctx context.Context, id uint64) (*model.DonationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (s *fakeRequestStore) Claim(ctx context.Context, id uint64, donorName, donorEmail string, confirmedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	if r.Status != model.StatusPending {
		return repository.ErrConflict
	}
	r.Status = model.StatusInProgress
	r.DonorName, r.DonorEmail = &donorName, &donorEmail
	at := confirmedAt
	r.ConfirmedAt = &at
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeRequestStore) SetStatus(ctx context.Context, id uint64, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	if r.Status != from {
		return repository.ErrConflict
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeRequestStore) UpdateDetails(ctx context.Context, req *model.DonationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[req.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if r.Status != model.StatusPending {
		return repository.ErrConflict
	}
	cp := *req
	cp.Status = r.Status
	cp.AddedAt = r.AddedAt
	cp.UpdatedAt = time.Now().UTC()
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeRequestStore) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	if r.Status != model.StatusPending {
		return repository.ErrConflict
	}
	delete(s.requests, id)
	return nil
}

func (s *fakeRequestStore) matches(r *model.DonationRequest, f repository.RequestFilter) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.RequesterEmail != "" && !strings.EqualFold(r.RequesterEmail, f.RequesterEmail) {
		return false
	}
	if f.DonorEmail != "" && (r.DonorEmail == nil || !strings.EqualFold(*r.DonorEmail, f.DonorEmail)) {
		return false
	}
	return true
}

func (s *fakeRequestStore) List(ctx context.Context, f repository.RequestFilter) ([]model.DonationRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.DonationRequest
	for _, r := range s.requests {
		if s.matches(r, f) {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	return pageSlice(all, f.Page, limit), len(all), nil
}

func (s *fakeRequestStore) Recent(ctx context.Context, limit int) ([]model.DonationRequest, error) {
	items, _, err := s.List(ctx, repository.RequestFilter{Status: model.StatusPending, Limit: limit})
	return items, err
}

func (s *fakeRequestStore) CountByStatusForRequester(ctx context.Context, email string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, r := range s.requests {
		if strings.EqualFold(r.RequesterEmail, email) {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (s *fakeRequestStore) CountAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests), nil
}

type fakeFundingStore struct {
	mu      sync.Mutex
	nextID  uint64
	records []model.FundingRecord
}

func newFakeFundingStore() *fakeFundingStore { return &fakeFundingStore{nextID: 1} }

func (s *fakeFundingStore) Record(ctx context.Context, rec *model.FundingRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.records {
		if e.TransactionID == rec.TransactionID {
			*rec = e
			return false, nil
		}
	}
	rec.ID = s.nextID
	s.nextID++
	rec.CreatedAt = time.Now().UTC()
	s.records = append(s.records, *rec)
	return true, nil
}

func (s *fakeFundingStore) List(ctx context.Context, page, limit int, email string) ([]model.FundingRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.FundingRecord
	for _, r := range s.records {
		if email != "" && !strings.EqualFold(r.DonorEmail, email) {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return pageSlice(all, page, limit), len(all), nil
}

func (s *fakeFundingStore) Total(ctx context.Context, email string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum uint64
	for _, r := range s.records {
		if email == "" || strings.EqualFold(r.DonorEmail, email) {
			sum += uint64(r.Amount)
		}
	}
	return sum, nil
}

type fakeBlogStore struct {
	mu     sync.Mutex
	nextID uint64
	blogs  map[uint64]*model.Blog
}

func newFakeBlogStore() *fakeBlogStore {
	return &fakeBlogStore{nextID: 1, blogs: map[uint64]*model.Blog{}}
}

func (s *fakeBlogStore) Create(ctx context.Context, b *model.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID
	s.nextID++
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	s.blogs[b.ID] = &cp
	return nil
}

func (s *fakeBlogStore) GetByID(ctx context.Context, id uint64) (*model.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBlogStore) Update(ctx context.Context, b *model.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.blogs[b.ID]
	if !ok {
		return sql.ErrNoRows
	}
	e.Title, e.Content, e.Thumbnail = b.Title, b.Content, b.Thumbnail
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeBlogStore) SetStatus(ctx context.Context, id uint64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blogs[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	return nil
}

func (s *fakeBlogStore) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.blogs, id)
	return nil
}

func (s *fakeBlogStore) List(ctx context.Context, status string) ([]model.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Blog
	for _, b := range s.blogs {
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeDirectoryStore struct {
	districts map[uint64]model.District
	upazilas  map[uint64][]model.Upazila
}

func newFakeDirectoryStore() *fakeDirectoryStore {
	return &fakeDirectoryStore{
		districts: map[uint64]model.District{
			1: {ID: 1, Name: "Dhaka"},
			2: {ID: 2, Name: "Chattogram"},
		},
		upazilas: map[uint64][]model.Upazila{
			1: {{ID: 10, DistrictID: 1, Name: "Savar"}, {ID: 11, DistrictID: 1, Name: "Dhamrai"}},
			2: {{ID: 20, DistrictID: 2, Name: "Patiya"}},
		},
	}
}

func (s *fakeDirectoryStore) Districts(ctx context.Context) ([]model.District, error) {
	var out []model.District
	for _, d := range s.districts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeDirectoryStore) DistrictByID(ctx context.Context, id uint64) (*model.District, error) {
	d, ok := s.districts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (s *fakeDirectoryStore) UpazilasByDistrict(ctx context.Context, districtID uint64) ([]model.Upazila, error) {
	return s.upazilas[districtID], nil
}

type fakePaymentProvider struct {
	mu        sync.Mutex
	nextID    int
	succeeded map[string]bool
	failCreate bool
}

func newFakePaymentProvider() *fakePaymentProvider {
	return &fakePaymentProvider{nextID: 1, succeeded: map[string]bool{}}
}

func (p *fakePaymentProvider) CreateIntent(ctx context.Context, amount uint32) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCreate {
		return nil, context.DeadlineExceeded
	}
	id := "pi_" + strconv.Itoa(p.nextID)
	p.nextID++
	p.succeeded[id] = true
	return &payment.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (p *fakePaymentProvider) VerifySucceeded(ctx context.Context, intentID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.succeeded[intentID], nil
}

func pageSlice[T any](all []T, page, limit int) []T {
	if limit <= 0 {
		limit = 10
	}
	start := page * limit
	if start >= len(all) {
		return nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
