// Package memory implements the repository contracts in process memory. It
// backs STORE_DRIVER=memory and the service tests. Each conditional update
// runs under a single lock, matching what the Mongo filters guarantee.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
)

// Store holds all four collections behind one mutex.
type Store struct {
	mu       sync.Mutex
	users    map[string]models.User
	products map[string]models.Product
	orders   map[string]models.Order
	payments map[string]models.Payment // keyed by order id
}

func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		products: make(map[string]models.Product),
		orders:   make(map[string]models.Order),
		payments: make(map[string]models.Payment),
	}
}

// Stores exposes s through the repository interfaces.
func (s *Store) Stores() repositories.Stores {
	return repositories.Stores{
		Users:    users{s},
		Products: products{s},
		Orders:   orders{s},
		Payments: payments{s},
	}
}

// ─────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────

type users struct{ s *Store }

func (r users) FindByUID(_ context.Context, uid string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r users) CreateIfAbsent(_ context.Context, u *models.User) (*models.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.users[u.UID]; ok {
		return &existing, false, nil
	}
	r.s.users[u.UID] = *u
	stored := *u
	return &stored, true, nil
}

func (r users) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.User{}
	for _, u := range r.s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r users) SetSellerStatus(_ context.Context, uid string, status models.Status) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[uid]
	if !ok || u.Role != models.RoleSeller {
		return nil, repositories.ErrNotFound
	}
	u.Status = status
	r.s.users[uid] = u
	return &u, nil
}

func (r users) SetRole(_ context.Context, uid string, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[uid]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Role = role
	r.s.users[uid] = u
	return nil
}

func (r users) Delete(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[uid]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.users, uid)
	return nil
}

// ─────────────────────────────────────────────
// Products
// ─────────────────────────────────────────────

type products struct{ s *Store }

func (r products) Create(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[p.ID]; ok {
		return repositories.ErrDuplicate
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r products) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (r products) ListBySeller(_ context.Context, sellerUID string) ([]models.Product, error) {
	return r.list(func(p models.Product) bool { return p.SellerUID == sellerUID }), nil
}

func (r products) ListReported(_ context.Context) ([]models.Product, error) {
	return r.list(func(p models.Product) bool { return p.Reported }), nil
}

func (r products) list(match func(models.Product) bool) []models.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Product{}
	for _, p := range r.s.products {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r products) IncrementReport(_ context.Context, id string) (*models.Product, error) {
	return r.update(id, func(p *models.Product) bool {
		p.ReportCount++
		p.Reported = true
		return true
	})
}

func (r products) ClearReport(_ context.Context, id string) (*models.Product, error) {
	return r.update(id, func(p *models.Product) bool {
		p.Reported = false
		return true
	})
}

func (r products) SetPromote(_ context.Context, id, sellerUID string, promote bool) (*models.Product, error) {
	return r.update(id, func(p *models.Product) bool {
		if p.SellerUID != sellerUID || p.OrderStatus {
			return false
		}
		p.Promote = promote
		return true
	})
}

func (r products) MarkSold(_ context.Context, id, orderID string) (bool, error) {
	_, err := r.update(id, func(p *models.Product) bool {
		if p.OrderStatus {
			return false
		}
		p.OrderStatus = true
		p.Promote = false
		p.SoldOrderID = orderID
		return true
	})
	if err == repositories.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r products) DeleteUnsold(_ context.Context, id, sellerUID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok || p.SellerUID != sellerUID || p.OrderStatus {
		return repositories.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

// update applies fn to the product under the lock. fn returning false means
// the filter did not match and nothing is written.
func (r products) update(id string, fn func(*models.Product) bool) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok || !fn(&p) {
		return nil, repositories.ErrNotFound
	}
	r.s.products[id] = p
	return &p, nil
}

// ─────────────────────────────────────────────
// Orders
// ─────────────────────────────────────────────

type orders struct{ s *Store }

func (r orders) Create(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[o.ID]; ok {
		return repositories.ErrDuplicate
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r orders) FindByID(_ context.Context, id string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &o, nil
}

func (r orders) ListByCustomer(_ context.Context, customerUID string) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Order{}
	for _, o := range r.s.orders {
		if o.CustomerUID == customerUID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r orders) MarkPaid(_ context.Context, id, paymentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok || o.OrderStatus {
		return false, nil
	}
	o.OrderStatus = true
	o.PaymentID = paymentID
	r.s.orders[id] = o
	return true, nil
}

// ─────────────────────────────────────────────
// Payments
// ─────────────────────────────────────────────

type payments struct{ s *Store }

func (r payments) Create(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[p.OrderID]; ok {
		return repositories.ErrDuplicate
	}
	r.s.payments[p.OrderID] = *p
	return nil
}

func (r payments) FindByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (r payments) ListSince(_ context.Context, since time.Time) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Payment{}
	for _, p := range r.s.payments {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
