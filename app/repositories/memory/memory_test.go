package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories/memory"
)

func newStores() repositories.Stores {
	return memory.New().Stores()
}

func TestUsers_CreateIfAbsentKeepsFirstRecord(t *testing.T) {
	ctx := context.Background()
	s := newStores()

	first, created, err := s.Users.CreateIfAbsent(ctx, &models.User{UID: "u1", Role: models.RoleSeller})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleSeller, first.Role)

	again, created, err := s.Users.CreateIfAbsent(ctx, &models.User{UID: "u1", Role: models.RoleBuyer})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.RoleSeller, again.Role)
}

func TestUsers_SetSellerStatusOnlyTouchesSellers(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	_, _, _ = s.Users.CreateIfAbsent(ctx, &models.User{UID: "b1", Role: models.RoleBuyer})
	_, _, _ = s.Users.CreateIfAbsent(ctx, &models.User{UID: "s1", Role: models.RoleSeller, Status: models.StatusUnverified})

	_, err := s.Users.SetSellerStatus(ctx, "b1", models.StatusVerified)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	u, err := s.Users.SetSellerStatus(ctx, "s1", models.StatusVerified)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, u.Status)
}

func TestUsers_ListByRoleIsOrdered(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _, _ = s.Users.CreateIfAbsent(ctx, &models.User{UID: "late", Role: models.RoleBuyer, CreatedAt: base.Add(time.Hour)})
	_, _, _ = s.Users.CreateIfAbsent(ctx, &models.User{UID: "early", Role: models.RoleBuyer, CreatedAt: base})
	_, _, _ = s.Users.CreateIfAbsent(ctx, &models.User{UID: "seller", Role: models.RoleSeller})

	list, err := s.Users.ListByRole(ctx, models.RoleBuyer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].UID)
	assert.Equal(t, "late", list[1].UID)
}

func TestProducts_ConcurrentReportsAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	require.NoError(t, s.Products.Create(ctx, &models.Product{ID: "p1", SellerUID: "s1"}))

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := s.Products.IncrementReport(ctx, "p1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := s.Products.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, n, p.ReportCount)
	assert.True(t, p.Reported)

	cleared, err := s.Products.ClearReport(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, cleared.Reported)
	assert.Equal(t, n, cleared.ReportCount)
}

func TestProducts_MarkSoldHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	require.NoError(t, s.Products.Create(ctx, &models.Product{ID: "p1", SellerUID: "s1", Promote: true}))

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ok, err := s.Products.MarkSold(ctx, "p1", "o1")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	p, _ := s.Products.FindByID(ctx, "p1")
	assert.True(t, p.OrderStatus)
	assert.False(t, p.Promote)
	assert.Equal(t, "o1", p.SoldOrderID)
}

func TestProducts_SetPromoteRequiresOwnerAndUnsold(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	require.NoError(t, s.Products.Create(ctx, &models.Product{ID: "p1", SellerUID: "s1"}))

	_, err := s.Products.SetPromote(ctx, "p1", "other", true)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	p, err := s.Products.SetPromote(ctx, "p1", "s1", true)
	require.NoError(t, err)
	assert.True(t, p.Promote)

	_, _ = s.Products.MarkSold(ctx, "p1", "o1")
	_, err = s.Products.SetPromote(ctx, "p1", "s1", true)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestProducts_DeleteUnsold(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	require.NoError(t, s.Products.Create(ctx, &models.Product{ID: "p1", SellerUID: "s1"}))
	require.NoError(t, s.Products.Create(ctx, &models.Product{ID: "p2", SellerUID: "s1"}))
	_, _ = s.Products.MarkSold(ctx, "p2", "o1")

	assert.ErrorIs(t, s.Products.DeleteUnsold(ctx, "p1", "other"), repositories.ErrNotFound)
	assert.ErrorIs(t, s.Products.DeleteUnsold(ctx, "p2", "s1"), repositories.ErrNotFound)
	assert.NoError(t, s.Products.DeleteUnsold(ctx, "p1", "s1"))

	_, err := s.Products.FindByID(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrders_MarkPaidOnce(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	require.NoError(t, s.Orders.Create(ctx, &models.Order{ID: "o1", CustomerUID: "b1"}))

	ok, err := s.Orders.MarkPaid(ctx, "o1", "pay1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Orders.MarkPaid(ctx, "o1", "pay2")
	require.NoError(t, err)
	assert.False(t, ok)

	o, _ := s.Orders.FindByID(ctx, "o1")
	assert.Equal(t, "pay1", o.PaymentID)
}

func TestPayments_OnePerOrder(t *testing.T) {
	ctx := context.Background()
	s := newStores()
	now := time.Now()

	require.NoError(t, s.Payments.Create(ctx, &models.Payment{ID: "a", OrderID: "o1", CreatedAt: now}))
	err := s.Payments.Create(ctx, &models.Payment{ID: "b", OrderID: "o1", CreatedAt: now})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	p, err := s.Payments.FindByOrderID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)

	require.NoError(t, s.Payments.Create(ctx, &models.Payment{ID: "c", OrderID: "o2", CreatedAt: now.Add(-time.Hour)}))
	recent, err := s.Payments.ListSince(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "a", recent[0].ID)
}
