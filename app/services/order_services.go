package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/cache"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/payment"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/workerpool"
)

// OrderInput places an order for one product.
type OrderInput struct {
	ProductID string `json:"product_id" validate:"required"`
}

// IntentInput asks for a payment intent for one product.
type IntentInput struct {
	ProductID string `json:"product_id" validate:"required"`
}

// PaymentInput reports a charge the client confirmed with the provider.
// Amount is in minor units, as returned by the intent.
type PaymentInput struct {
	OrderID       string `json:"order_id"       validate:"required"`
	ProductID     string `json:"product_id"     validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required,max=255"`
	Amount        int64  `json:"amount"         validate:"gt=0"`
}

// IntentResult is what the client needs to confirm the charge.
type IntentResult struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// FinalizeResult is the settled payment and its order. It is also returned
// alongside ErrConflictingState for a duplicate submission.
type FinalizeResult struct {
	Payment   *models.Payment `json:"payment"`
	Order     *models.Order   `json:"order"`
	Recovered bool            `json:"recovered,omitempty"`
}

// ReconcileReport summarizes one reconcile pass.
// Conflicts are payments whose product was sold under another order; they
// need a refund, not a retry, and are not counted as failures.
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Repaired  int `json:"repaired"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
}

type OrderConfig struct {
	Currency         string
	IntentTTL        time.Duration
	ReconcileWorkers int
}

// OrderService drives an order from creation through payment. Order, product
// and payment live in separate collections with no shared transaction, so the
// payment insert is the durable anchor and the order and product transitions
// are conditional updates that can be re-applied from it at any time.
type OrderService struct {
	stores   repositories.Stores
	provider payment.Provider
	cache    cache.Store
	bus      *event.Bus
	cfg      OrderConfig
	now      func() time.Time
	newID    func() string
}

func NewOrderService(stores repositories.Stores, provider payment.Provider, c cache.Store, bus *event.Bus, cfg OrderConfig) *OrderService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.ReconcileWorkers <= 0 {
		cfg.ReconcileWorkers = 4
	}
	return &OrderService{
		stores:   stores,
		provider: provider,
		cache:    c,
		bus:      bus,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ─── Orders ──────────────────────────────────────────────────────────────────

// CreateOrder places a pending order for productID, snapshotting its terms.
// A product that is already sold cannot be ordered.
func (s *OrderService) CreateOrder(ctx context.Context, buyerUID string, in OrderInput) (*models.Order, error) {
	p, err := s.availableProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	o := &models.Order{
		ID:          s.newID(),
		CustomerUID: buyerUID,
		Product:     p.Snapshot(),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.stores.Orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	logger.WithCtx(ctx).Info("order created", "order", o.ID, "product", p.ID)
	s.bus.FireAsync(ctx, event.Event{
		Name: EventOrderCreated,
		Key:  o.ID,
		Data: map[string]any{"customer_uid": buyerUID, "product_id": p.ID, "price": p.ResellPrice},
	})
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, buyerUID string) ([]models.Order, error) {
	return s.stores.Orders.ListByCustomer(ctx, buyerUID)
}

// ─── Payment intent ──────────────────────────────────────────────────────────

// RequestPaymentIntent asks the provider for an intent at the product's
// current price. Nothing is stored except a short-lived cache entry that lets
// a retry reuse the same intent.
func (s *OrderService) RequestPaymentIntent(ctx context.Context, buyerUID string, in IntentInput) (*IntentResult, error) {
	p, err := s.availableProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	amount, err := payment.ToMinorUnits(p.ResellPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := fmt.Sprintf("intent:%s:%s:%d", buyerUID, p.ID, amount)
	var cached IntentResult
	if s.cache.Get(ctx, key, &cached) {
		metrics.PaymentIntents.WithLabelValues("cached").Inc()
		return &cached, nil
	}

	intent, err := s.provider.CreateIntent(ctx, payment.IntentRequest{
		Amount:         amount,
		Currency:       s.cfg.Currency,
		IdempotencyKey: key,
		Metadata: map[string]string{
			"buyer_uid":  buyerUID,
			"product_id": p.ID,
		},
	})
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("failed").Inc()
		logger.WithCtx(ctx).Error("payment intent failed", "provider", s.provider.Name(), "product", p.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	res := &IntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Currency:     s.cfg.Currency,
	}
	if s.cfg.IntentTTL > 0 {
		if err := s.cache.Set(ctx, key, res, s.cfg.IntentTTL); err != nil {
			logger.WithCtx(ctx).Warn("intent cache write failed", "driver", s.cache.Driver(), "error", err)
		}
	}
	metrics.PaymentIntents.WithLabelValues("created").Inc()
	return res, nil
}

// ─── Finalize ────────────────────────────────────────────────────────────────

// FinalizePayment records the payment for an order and settles the order and
// product. Calling it again for the same order never creates a second payment:
// if the earlier call stopped after the insert, this one completes the
// transitions; if it had already completed, ErrConflictingState is returned
// together with the existing payment.
func (s *OrderService) FinalizePayment(ctx context.Context, buyerUID string, in PaymentInput) (*FinalizeResult, error) {
	log := logger.WithCtx(ctx)

	order, err := s.stores.Orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, storeErr(err)
	}
	if order.CustomerUID != buyerUID {
		metrics.PaymentsFinalized.WithLabelValues("rejected").Inc()
		return nil, ErrOwnershipMismatch
	}
	if in.ProductID != order.Product.ID {
		metrics.PaymentsFinalized.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: product %s is not on order %s", ErrInvalidInput, in.ProductID, order.ID)
	}
	want, err := payment.ToMinorUnits(order.Product.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Amount != want {
		metrics.PaymentsFinalized.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: amount %d does not match order total %d", ErrInvalidInput, in.Amount, want)
	}
	if err := s.confirmCharge(ctx, buyerUID, order, in.TransactionID, want); err != nil {
		metrics.PaymentsFinalized.WithLabelValues("rejected").Inc()
		return nil, err
	}

	pay := &models.Payment{
		ID:            s.newID(),
		OrderID:       order.ID,
		ProductID:     order.Product.ID,
		CustomerUID:   buyerUID,
		TransactionID: in.TransactionID,
		Amount:        want,
		Currency:      s.cfg.Currency,
		CreatedAt:     s.now().UTC(),
	}
	existed := false
	if err := s.stores.Payments.Create(ctx, pay); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("record payment: %w", err)
		}
		existed = true
		if pay, err = s.stores.Payments.FindByOrderID(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("load payment: %w", err)
		}
	}

	changed, err := s.settle(ctx, pay)
	if err != nil {
		if errors.Is(err, ErrConflictingState) {
			metrics.PaymentsFinalized.WithLabelValues("conflict").Inc()
			s.reportConflict(ctx, pay)
		}
		return nil, err
	}

	order.OrderStatus = true
	order.PaymentID = pay.ID
	res := &FinalizeResult{Payment: pay, Order: order, Recovered: existed}

	if existed && !changed {
		metrics.PaymentsFinalized.WithLabelValues("duplicate").Inc()
		log.Warn("duplicate payment submission", "order", order.ID, "payment", pay.ID)
		return res, fmt.Errorf("%w: order %s is already paid", ErrConflictingState, order.ID)
	}

	result := "ok"
	if existed {
		result = "recovered"
		log.Info("payment recovered after partial failure", "order", order.ID, "payment", pay.ID)
	}
	metrics.PaymentsFinalized.WithLabelValues(result).Inc()
	s.bus.FireAsync(ctx, event.Event{
		Name: EventPaymentFinalized,
		Key:  order.ID,
		Data: map[string]any{
			"payment_id":     pay.ID,
			"product_id":     pay.ProductID,
			"amount":         pay.Amount,
			"currency":       pay.Currency,
			"transaction_id": pay.TransactionID,
		},
	})
	return res, nil
}

// confirmCharge reads the intent named by transactionID back from the provider
// and checks that it is a captured charge of want for this buyer and product.
func (s *OrderService) confirmCharge(ctx context.Context, buyerUID string, order *models.Order, transactionID string, want int64) error {
	intent, err := s.provider.ConfirmIntent(ctx, transactionID)
	switch {
	case errors.Is(err, payment.ErrIntentNotFound):
		return fmt.Errorf("%w: unknown transaction %s", ErrInvalidInput, transactionID)
	case err != nil:
		logger.WithCtx(ctx).Error("payment confirmation failed", "provider", s.provider.Name(), "order", order.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	switch {
	case !intent.Succeeded():
		return fmt.Errorf("%w: transaction %s is %q, not %s", ErrInvalidInput, transactionID, intent.Status, payment.StatusSucceeded)
	case intent.Amount != want:
		return fmt.Errorf("%w: transaction %s charged %d, order total is %d", ErrInvalidInput, transactionID, intent.Amount, want)
	case !strings.EqualFold(intent.Currency, s.cfg.Currency):
		return fmt.Errorf("%w: transaction %s is in %s, not %s", ErrInvalidInput, transactionID, intent.Currency, s.cfg.Currency)
	}
	if uid, ok := intent.Metadata["buyer_uid"]; ok && uid != buyerUID {
		return fmt.Errorf("%w: transaction %s belongs to another buyer", ErrInvalidInput, transactionID)
	}
	if pid, ok := intent.Metadata["product_id"]; ok && pid != order.Product.ID {
		return fmt.Errorf("%w: transaction %s paid for another product", ErrInvalidInput, transactionID)
	}
	return nil
}

// settle applies the order and product transitions for pay. Both updates are
// conditional, so settle can run any number of times; changed reports whether
// this run moved either record.
func (s *OrderService) settle(ctx context.Context, pay *models.Payment) (changed bool, err error) {
	paid, err := s.stores.Orders.MarkPaid(ctx, pay.OrderID, pay.ID)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}

	sold, err := s.stores.Products.MarkSold(ctx, pay.ProductID, pay.OrderID)
	if err != nil {
		return paid, fmt.Errorf("mark product sold: %w", err)
	}
	if sold {
		s.bus.FireAsync(ctx, event.Event{
			Name: EventProductSold,
			Key:  pay.ProductID,
			Data: map[string]any{"order_id": pay.OrderID},
		})
		return true, nil
	}

	// Already sold: fine if it was sold under this order.
	p, err := s.stores.Products.FindByID(ctx, pay.ProductID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return paid, fmt.Errorf("load product: %w", err)
	}
	if p == nil || p.SoldOrderID != pay.OrderID {
		return paid, fmt.Errorf("%w: product %s was sold under another order", ErrConflictingState, pay.ProductID)
	}
	return paid, nil
}

// reportConflict flags a payment whose product went to another order. The
// charge stays recorded so it can be refunded.
func (s *OrderService) reportConflict(ctx context.Context, pay *models.Payment) {
	logger.WithCtx(ctx).Error("payment settled against unavailable product",
		"order", pay.OrderID, "product", pay.ProductID, "payment", pay.ID)
	s.bus.FireAsync(ctx, event.Event{
		Name: EventPaymentConflict,
		Key:  pay.OrderID,
		Data: map[string]any{"payment_id": pay.ID, "product_id": pay.ProductID},
	})
}

// ─── Reconcile ───────────────────────────────────────────────────────────────

// Reconcile re-applies settle for every payment created at or after since. It
// repairs orders and products left behind when a finalize call failed after
// the payment insert. A conflicting payment is reported only by the pass that
// marks its order paid, so later passes do not repeat the alert.
func (s *OrderService) Reconcile(ctx context.Context, since time.Time) (ReconcileReport, error) {
	start := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	pays, err := s.stores.Payments.ListSince(ctx, since)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: list payments: %w", err)
	}

	var repaired, conflicts, failed atomic.Int64
	pool := workerpool.New(s.cfg.ReconcileWorkers)
	var submitErr error
	for i := range pays {
		pay := &pays[i]
		submitErr = pool.SubmitCtx(ctx, func() {
			changed, err := s.settle(ctx, pay)
			switch {
			case errors.Is(err, ErrConflictingState):
				conflicts.Add(1)
				metrics.ReconcileRepairs.WithLabelValues("conflict").Inc()
				if changed {
					s.reportConflict(ctx, pay)
				} else {
					logger.WithCtx(ctx).Debug("reconcile: known conflict", "payment", pay.ID, "order", pay.OrderID)
				}
			case err != nil:
				failed.Add(1)
				metrics.ReconcileRepairs.WithLabelValues("failed").Inc()
				logger.WithCtx(ctx).Warn("reconcile: settle failed", "payment", pay.ID, "order", pay.OrderID, "error", err)
			case changed:
				repaired.Add(1)
				metrics.ReconcileRepairs.WithLabelValues("repaired").Inc()
				logger.WithCtx(ctx).Info("reconcile: repaired", "payment", pay.ID, "order", pay.OrderID)
			}
		})
		if submitErr != nil {
			break
		}
	}
	pool.Shutdown()

	report := ReconcileReport{
		Scanned:   len(pays),
		Repaired:  int(repaired.Load()),
		Conflicts: int(conflicts.Load()),
		Failed:    int(failed.Load()),
	}
	if submitErr != nil {
		return report, fmt.Errorf("reconcile: %w", submitErr)
	}
	return report, nil
}

// availableProduct loads productID and rejects it if already sold.
func (s *OrderService) availableProduct(ctx context.Context, productID string) (*models.Product, error) {
	p, err := s.stores.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, storeErr(err)
	}
	if p.OrderStatus {
		return nil, fmt.Errorf("%w: product %s is already sold", ErrConflictingState, productID)
	}
	return p, nil
}
