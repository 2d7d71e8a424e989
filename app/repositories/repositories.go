// Package repositories holds the narrow storage contracts the guards and the
// order workflow depend on, and their MongoDB implementations.
//
// Every mutation of a field that concurrent requests share (report_count,
// order_status, promote) is a single conditional or atomic store operation.
// Callers never read a value, change it in memory and write it back.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserStore is the user directory.
type UserStore interface {
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	// CreateIfAbsent inserts u unless a user with the same uid exists. It
	// reports whether a record was created and returns the stored user.
	CreateIfAbsent(ctx context.Context, u *models.User) (*models.User, bool, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	// SetSellerStatus only touches users whose role is seller.
	SetSellerStatus(ctx context.Context, uid string, status models.Status) (*models.User, error)
	SetRole(ctx context.Context, uid string, role models.Role) error
	Delete(ctx context.Context, uid string) error
}

// ProductStore is the product registry.
type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]models.Product, error)
	ListReported(ctx context.Context) ([]models.Product, error)
	// IncrementReport atomically adds one to report_count and sets reported.
	IncrementReport(ctx context.Context, id string) (*models.Product, error)
	// ClearReport resets the reported flag and keeps the counter.
	ClearReport(ctx context.Context, id string) (*models.Product, error)
	// SetPromote applies only to an unsold product owned by sellerUID.
	SetPromote(ctx context.Context, id, sellerUID string, promote bool) (*models.Product, error)
	// MarkSold flips order_status false→true and clears promote, recording
	// orderID. It reports whether this call performed the transition.
	MarkSold(ctx context.Context, id, orderID string) (bool, error)
	// DeleteUnsold removes an unsold product owned by sellerUID.
	DeleteUnsold(ctx context.Context, id, sellerUID string) error
}

// OrderStore is the order ledger.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerUID string) ([]models.Order, error)
	// MarkPaid flips order_status false→true and records paymentID. It
	// reports whether this call performed the transition.
	MarkPaid(ctx context.Context, id, paymentID string) (bool, error)
}

// PaymentStore is the append-only payment ledger.
type PaymentStore interface {
	// Create fails with ErrDuplicate when the order already has a payment.
	Create(ctx context.Context, p *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	ListSince(ctx context.Context, since time.Time) ([]models.Payment, error)
}

// Stores bundles the four collections for wiring.
type Stores struct {
	Users    UserStore
	Products ProductStore
	Orders   OrderStore
	Payments PaymentStore
}
