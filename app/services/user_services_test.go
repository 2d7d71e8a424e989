package services_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
)

func TestIssueToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.IssueToken(ctx, "nobody")
	assert.ErrorIs(t, err, services.ErrUnknownUser)

	f.user(t, "u1", models.RoleBuyer, "")
	tok, err := f.users.IssueToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "token-for-u1", tok.Token)
	assert.False(t, tok.ExpiresAt.IsZero())
}

func TestRegister_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var registered atomic.Int32
	f.bus.Listen(services.EventUserRegistered, func(context.Context, event.Event) { registered.Add(1) })

	u, created, err := f.users.Register(ctx, services.RegisterInput{UID: "s1", Name: "Sam", Role: "seller"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleSeller, u.Role)
	assert.Equal(t, models.StatusUnverified, u.Status)

	again, created, err := f.users.Register(ctx, services.RegisterInput{UID: "s1", Name: "Other", Role: "buyer"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Sam", again.Name)
	assert.Equal(t, models.RoleSeller, again.Role)

	f.bus.Wait()
	assert.Equal(t, int32(1), registered.Load())
}

func TestRegister_DefaultsToBuyerAndRefusesAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, _, err := f.users.Register(ctx, services.RegisterInput{UID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, u.Role)
	assert.Empty(t, u.Status)

	_, _, err = f.users.Register(ctx, services.RegisterInput{UID: "x1", Role: "admin"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestRoleCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "s1", models.RoleSeller, models.StatusVerified)
	f.user(t, "s2", models.RoleSeller, models.StatusUnverified)
	f.user(t, "a1", models.RoleAdmin, "")

	flags, err := f.users.RoleCheck(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, services.RoleFlags{IsSeller: true, IsVerified: true}, flags)

	flags, err = f.users.RoleCheck(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, services.RoleFlags{IsSeller: true}, flags)

	flags, err = f.users.RoleCheck(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, flags.IsAdmin)

	flags, err = f.users.RoleCheck(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, services.RoleFlags{}, flags)
}

func TestVerifySeller_RepeatIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "u4", models.RoleSeller, models.StatusUnverified)

	first, err := f.users.VerifySeller(ctx, "u4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, first.Status)

	second, err := f.users.VerifySeller(ctx, "u4")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := f.stores.Users.FindByUID(ctx, "u4")
	require.NoError(t, err)
	assert.True(t, stored.IsVerifiedSeller())
}

func TestVerifySeller_OnlySellers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "b1", models.RoleBuyer, "")

	_, err := f.users.VerifySeller(ctx, "b1")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.users.VerifySeller(ctx, "")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestListByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "s1", models.RoleSeller, "")
	f.user(t, "b1", models.RoleBuyer, "")

	sellers, err := f.users.ListByRole(ctx, "seller")
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	assert.Equal(t, "s1", sellers[0].UID)

	_, err = f.users.ListByRole(ctx, "root")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "a1", models.RoleAdmin, "")
	f.user(t, "b1", models.RoleBuyer, "")

	assert.ErrorIs(t, f.users.DeleteUser(ctx, "a1", "a1"), services.ErrInvalidInput)
	require.NoError(t, f.users.DeleteUser(ctx, "a1", "b1"))
	assert.ErrorIs(t, f.users.DeleteUser(ctx, "a1", "b1"), services.ErrNotFound)
}

func TestPromoteAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "b1", models.RoleBuyer, "")

	require.NoError(t, f.users.PromoteAdmin(ctx, "b1"))
	flags, err := f.users.RoleCheck(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, flags.IsAdmin)

	assert.ErrorIs(t, f.users.PromoteAdmin(ctx, "ghost"), services.ErrNotFound)
}
