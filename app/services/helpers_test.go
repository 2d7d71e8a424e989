package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories/memory"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/cache"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/payment"
)

// fakeProvider records intent requests and fails while fail is set. Intents
// it creates are succeeded unless edited through setIntent.
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	confirms int
	last     payment.IntentRequest
	fail     error
	intents  map[string]payment.Intent
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.last = req
	if f.fail != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrProvider, f.fail)
	}
	id := fmt.Sprintf("pi_%d", f.calls)
	intent := payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       payment.StatusSucceeded,
		Metadata:     req.Metadata,
	}
	if f.intents == nil {
		f.intents = make(map[string]payment.Intent)
	}
	f.intents[id] = intent
	return &intent, nil
}

func (f *fakeProvider) ConfirmIntent(_ context.Context, id string) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.confirms++
	if f.fail != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrProvider, f.fail)
	}
	intent, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", payment.ErrIntentNotFound, id)
	}
	return &intent, nil
}

func (f *fakeProvider) setIntent(id string, edit func(*payment.Intent)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent := f.intents[id]
	edit(&intent)
	f.intents[id] = intent
}

func (f *fakeProvider) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) Confirms() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirms
}

// flakyProducts fails the next failSold MarkSold calls, as a dropped
// connection would after the payment insert succeeded.
type flakyProducts struct {
	repositories.ProductStore
	failSold atomic.Int32
}

func (f *flakyProducts) MarkSold(ctx context.Context, id, orderID string) (bool, error) {
	if f.failSold.Add(-1) >= 0 {
		return false, errors.New("mongo: socket closed")
	}
	return f.ProductStore.MarkSold(ctx, id, orderID)
}

type fixture struct {
	stores   repositories.Stores
	products *flakyProducts
	provider *fakeProvider
	bus      *event.Bus
	orders   *services.OrderService
	users    *services.UserService
	catalog  *services.ProductService
	mod      *services.ModerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := memory.New().Stores()
	flaky := &flakyProducts{ProductStore: stores.Products}
	stores.Products = flaky

	f := &fixture{
		stores:   stores,
		products: flaky,
		provider: &fakeProvider{},
		bus:      event.New(),
	}
	f.orders = services.NewOrderService(stores, f.provider, cache.NewMemory(), f.bus, services.OrderConfig{
		Currency:         "usd",
		IntentTTL:        time.Minute,
		ReconcileWorkers: 2,
	})
	f.users = services.NewUserService(stores.Users, fakeTokens{}, f.bus)
	f.catalog = services.NewProductService(stores.Products, f.bus)
	f.mod = services.NewModerationService(stores.Products, f.bus)
	t.Cleanup(f.bus.Wait)
	return f
}

func (f *fixture) user(t *testing.T, uid string, role models.Role, status models.Status) *models.User {
	t.Helper()
	u, _, err := f.stores.Users.CreateIfAbsent(context.Background(), &models.User{
		UID: uid, Role: role, Status: status, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, sellerUID string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:          uuid.NewString(),
		SellerUID:   sellerUID,
		CategoryID:  "phones",
		Name:        "Pixel 6",
		ResellPrice: price,
		Promote:     true,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, f.stores.Products.Create(context.Background(), p))
	return p
}

func (f *fixture) findProduct(t *testing.T, id string) *models.Product {
	t.Helper()
	p, err := f.stores.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) findOrder(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := f.stores.Orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (f *fixture) payments(t *testing.T) []models.Payment {
	t.Helper()
	ps, err := f.stores.Payments.ListSince(context.Background(), time.Time{})
	require.NoError(t, err)
	return ps
}

type fakeTokens struct{}

func (fakeTokens) Issue(uid string) (string, time.Time, error) {
	return "token-for-" + uid, time.Now().Add(time.Hour), nil
}
