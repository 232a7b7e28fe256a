package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/cache"
	"github.com/Skotchmaster/storefront/pkg/events"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event events.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: ev})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(typ string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.Event["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}

type fakeGateway struct {
	mu        sync.Mutex
	sessions  map[string]*payment.Session
	requests  []payment.CreateSessionRequest
	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*payment.Session{}}
}

func (g *fakeGateway) CreateSession(_ context.Context, req payment.CreateSessionRequest) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.requests = append(g.requests, req)

	var total int64
	for _, li := range req.LineItems {
		total += li.UnitAmount * int64(li.Quantity)
	}
	total -= (total*int64(req.DiscountPercentage) + 50) / 100

	sess := &payment.Session{
		ID:            "cs_" + uuid.NewString(),
		PaymentStatus: "unpaid",
		AmountTotal:   total,
		Metadata:      req.Metadata,
	}
	g.sessions[sess.ID] = sess
	return sess, nil
}

func (g *fakeGateway) GetSession(_ context.Context, id string) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sess, ok := g.sessions[id]
	if !ok {
		return nil, payment.ErrGateway
	}
	cp := *sess
	return &cp, nil
}

func (g *fakeGateway) markPaid(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].PaymentStatus = payment.StatusPaid
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[uuid.UUID]models.Product
	deleted []uuid.UUID
	failing bool
	hits    []models.Product
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uuid.UUID]models.Product{}}
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, nil, errors.New("index unavailable")
	}
	return int64(len(f.hits)), f.hits, nil
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID] = *p
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	delete(f.indexed, id)
	return nil
}

type testEnv struct {
	DB       *gorm.DB
	Repo     *repo.GormRepo
	Cache    *cache.Client
	Redis    *miniredis.Miniredis
	Sessions *session.Store
	Issuer   *tokens.Issuer
	Events   *recordingPublisher
	Gateway  *fakeGateway
	Index    *fakeIndex

	Auth      *AuthService
	Catalog   *CatalogService
	Cart      *CartService
	Coupons   *CouponService
	Payment   *PaymentService
	Analytics *AnalyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	c, mr := testutil.NewCache(t)
	rp := &repo.GormRepo{DB: db}
	sessions := session.NewStore(c)
	issuer := &tokens.Issuer{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	pub := &recordingPublisher{}
	gw := newFakeGateway()
	idx := newFakeIndex()

	return &testEnv{
		DB:       db,
		Repo:     rp,
		Cache:    c,
		Redis:    mr,
		Sessions: sessions,
		Issuer:   issuer,
		Events:   pub,
		Gateway:  gw,
		Index:    idx,

		Auth:      &AuthService{Repo: rp, Tokens: issuer, Sessions: sessions, Events: pub},
		Catalog:   &CatalogService{Repo: rp, Cache: c, Search: idx, Events: pub},
		Cart:      &CartService{Repo: rp, Events: pub},
		Coupons:   &CouponService{Repo: rp},
		Payment:   &PaymentService{Repo: rp, Gateway: gw, Events: pub, ClientURL: "http://localhost:5173"},
		Analytics: &AnalyticsService{Repo: rp},
	}
}

func (env *testEnv) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	h, err := pkg_hash.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{Name: "Test", Email: email, PasswordHash: h, Role: role}
	require.NoError(t, env.DB.Create(u).Error)
	return u
}

func (env *testEnv) createProduct(t *testing.T, name string, price int64, featured bool) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    "general",
		IsFeatured:  featured,
	}
	require.NoError(t, env.DB.Create(p).Error)
	return p
}
