package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/core/storage"
	"auto-ria-clone/internal/domain"
)

type memUsers struct {
	mu   sync.Mutex
	rows map[string]domain.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]domain.User{}} }

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.Email == u.Email {
			return domain.Conflict("duplicate email")
		}
	}
	r.rows[u.ID] = *u
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.rows {
		if u.Role == role && !u.IsDeleted && !u.IsBanned {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *memUsers) List(_ context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.User
	for _, u := range r.rows {
		if q.Role == "" || u.Role == q.Role {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return paginate(all, q.Page, q.PageSize), int64(len(all)), nil
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID]; !ok {
		return domain.NotFound("user %s not found", u.ID)
	}
	r.rows[u.ID] = *u
	return nil
}

func paginate[T any](all []T, page, size int) []T {
	from := (page - 1) * size
	if from >= len(all) {
		return nil
	}
	return all[from:min(from+size, len(all))]
}

type memListings struct {
	mu    sync.Mutex
	rows  map[string]domain.Listing
	views map[string][]time.Time
	users *memUsers
	seq   int
}

func newMemListings(users *memUsers) *memListings {
	return &memListings{rows: map[string]domain.Listing{}, views: map[string][]time.Time{}, users: users}
}

func (r *memListings) Create(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	l.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC)
	l.UpdatedAt = l.CreatedAt
	r.rows[l.ID] = *l
	return nil
}

func (r *memListings) get(id string) (*domain.Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	return &l, ok
}

func (r *memListings) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	l, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return l, nil
}

func (r *memListings) hydrate(l domain.Listing) domain.HydratedListing {
	h := domain.HydratedListing{Listing: l}
	if u, _ := r.users.FindByID(context.Background(), l.OwnerID); u != nil {
		h.Owner = domain.OwnerCard{ID: u.ID, Name: u.Name, Surname: u.Surname, Email: u.Email, Phone: u.Phone}
	}
	return h
}

func (r *memListings) FindHydrated(_ context.Context, id string) (*domain.HydratedListing, error) {
	l, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	h := r.hydrate(*l)
	return &h, nil
}

func (r *memListings) List(_ context.Context, f domain.ListingFilter) ([]domain.HydratedListing, int64, error) {
	r.mu.Lock()
	var all []domain.Listing
	for _, l := range r.rows {
		switch {
		case l.IsDeleted,
			f.OnlyActive && l.Status != domain.StatusActive,
			f.OwnerID != "" && l.OwnerID != f.OwnerID,
			f.Brand != "" && l.Brand != f.Brand,
			f.Model != "" && l.Model != f.Model,
			f.Region != "" && l.Region != f.Region,
			f.PriceMin > 0 && float64(l.ConvertedPrices[domain.CurrencyUAH]) < f.PriceMin,
			f.PriceMax > 0 && float64(l.ConvertedPrices[domain.CurrencyUAH]) > f.PriceMax:
			continue
		}
		all = append(all, l)
	}
	r.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	page := paginate(all, f.Page, f.PageSize)
	out := make([]domain.HydratedListing, 0, len(page))
	for _, l := range page {
		out = append(out, r.hydrate(l))
	}
	return out, int64(len(all)), nil
}

func (r *memListings) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.rows {
		if l.OwnerID == ownerID && !l.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r *memListings) Update(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[l.ID]
	if !ok {
		return domain.NotFound("listing %s not found", l.ID)
	}
	l.OwnerID, l.CreatedAt = old.OwnerID, old.CreatedAt
	r.rows[l.ID] = *l
	return nil
}

func (r *memListings) UpdatePrices(_ context.Context, id string, prices domain.Prices, rates domain.Rates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return domain.NotFound("listing %s not found", id)
	}
	l.ConvertedPrices, l.ExchangeRates = prices, rates
	r.rows[id] = l
	return nil
}

func (r *memListings) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok || l.IsDeleted {
		return domain.NotFound("listing %s not found", id)
	}
	l.IsDeleted = true
	r.rows[id] = l
	return nil
}

func (r *memListings) AddView(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id] = append(r.views[id], at)
	return nil
}

func (r *memListings) ViewTimes(_ context.Context, id string) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.views[id]), nil
}

func (r *memListings) AveragePriceUAH(_ context.Context, brand, model, region string) (float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var nSum, rSum float64
	var nCnt, rCnt int
	for _, l := range r.rows {
		if l.IsDeleted || l.Status != domain.StatusActive || l.Brand != brand || l.Model != model {
			continue
		}
		p := float64(l.ConvertedPrices[domain.CurrencyUAH])
		nSum, nCnt = nSum+p, nCnt+1
		if l.Region == region {
			rSum, rCnt = rSum+p, rCnt+1
		}
	}
	avg := func(sum float64, n int) float64 {
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	}
	return avg(nSum, nCnt), avg(rSum, rCnt), nil
}

func (r *memListings) EachBatch(ctx context.Context, size int, fn func([]domain.Listing) error) error {
	r.mu.Lock()
	all := make([]domain.Listing, 0, len(r.rows))
	for _, l := range r.rows {
		all = append(all, l)
	}
	r.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	for from := 0; from < len(all); from += size {
		if err := fn(all[from:min(from+size, len(all))]); err != nil {
			return err
		}
	}
	return nil
}

type memBrands struct {
	mu   sync.Mutex
	rows map[string][]string
}

func newMemBrands(seed map[string][]string) *memBrands {
	b := &memBrands{rows: map[string][]string{}}
	for k, v := range seed {
		b.rows[k] = slices.Clone(v)
	}
	return b
}

func (r *memBrands) List(context.Context) ([]domain.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Brand, 0, len(r.rows))
	for name, models := range r.rows {
		out = append(out, domain.Brand{Name: name, Models: slices.Sorted(slices.Values(models))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memBrands) Exists(_ context.Context, brand, model string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.rows[brand], model), nil
}

func (r *memBrands) AddModels(_ context.Context, brand string, models []string) (*domain.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.rows[brand]
	for _, m := range models {
		if !slices.Contains(cur, m) {
			cur = append(cur, m)
		}
	}
	r.rows[brand] = cur
	return &domain.Brand{Name: brand, Models: slices.Sorted(slices.Values(cur))}, nil
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Send(_ context.Context, kind mailer.Kind, to []mailer.Recipient, data map[string]any) {
	m.Called(kind, to, data)
}

type fakeFiles struct {
	mu      sync.Mutex
	deleted []string
	n       int
}

func (f *fakeFiles) Replace(_ context.Context, kind storage.Kind, ownerID, filename, contentType string, r io.Reader, _ int64, prevKey string) (string, error) {
	key, err := storage.ObjectKey(kind, ownerID, filename, contentType)
	if err != nil {
		return "", err
	}
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	if prevKey != "" {
		f.deleted = append(f.deleted, prevKey)
	}
	return key, nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]domain.StoredToken
}

func newMemTokens() *memTokens { return &memTokens{rows: map[string]domain.StoredToken{}} }

func (r *memTokens) Create(_ context.Context, t *domain.StoredToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[string(t.Kind)+":"+t.Fingerprint] = *t
	return nil
}

func (r *memTokens) Consume(_ context.Context, kind domain.TokenKind, fp string, now time.Time) (*domain.StoredToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(kind) + ":" + fp
	t, ok := r.rows[key]
	delete(r.rows, key)
	if !ok || !t.ExpiresAt.After(now) {
		return nil, nil
	}
	return &t, nil
}

func (r *memTokens) DeleteByUser(_ context.Context, userID string, kind domain.TokenKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.rows {
		if t.UserID == userID && t.Kind == kind {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.rows {
		if !t.ExpiresAt.After(now) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

func (r *memTokens) count(userID string, kind domain.TokenKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.rows {
		if t.UserID == userID && t.Kind == kind {
			n++
		}
	}
	return n
}

type pastPassword struct {
	userID string
	hash   string
	at     time.Time
}

type memPasswords struct {
	mu   sync.Mutex
	rows []pastPassword
}

func (r *memPasswords) Add(_ context.Context, userID, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, pastPassword{userID, hash, at})
	return nil
}

func (r *memPasswords) Since(_ context.Context, userID string, since time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.rows {
		if p.userID == userID && !p.at.Before(since) {
			out = append(out, p.hash)
		}
	}
	return out, nil
}

func (r *memPasswords) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, p := range r.rows {
		if !p.at.Before(before) {
			kept = append(kept, p)
		}
	}
	n := int64(len(r.rows) - len(kept))
	r.rows = kept
	return n, nil
}

// noUpdates fails every Update so tests can check that a flow writes once.
type noUpdates struct{ *memUsers }

func (noUpdates) Update(context.Context, *domain.User) error {
	return errors.New("unexpected update")
}
