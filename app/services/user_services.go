package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
)

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(uid string) (string, time.Time, error)
}

// Token is the answer to an identity-token exchange.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterInput is the first sign-in payload. Admin cannot be requested here.
type RegisterInput struct {
	UID   string `json:"uid"   validate:"required,max=128"`
	Name  string `json:"name"  validate:"nullable,max=120"`
	Email string `json:"email" validate:"nullable,email"`
	Role  string `json:"role"  validate:"nullable,in=buyer|seller"`
}

// RoleFlags answers the public role check.
type RoleFlags struct {
	IsBuyer    bool `json:"isBuyer"`
	IsSeller   bool `json:"isSeller"`
	IsAdmin    bool `json:"isAdmin"`
	IsVerified bool `json:"isVerified"`
}

type UserService struct {
	users  repositories.UserStore
	tokens TokenIssuer
	bus    *event.Bus
	now    func() time.Time
}

func NewUserService(users repositories.UserStore, tokens TokenIssuer, bus *event.Bus) *UserService {
	return &UserService{users: users, tokens: tokens, bus: bus, now: time.Now}
}

// IssueToken signs a token for uid. The uid must already have a user record.
func (s *UserService) IssueToken(ctx context.Context, uid string) (*Token, error) {
	if _, err := s.users.FindByUID(ctx, uid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.WithCtx(ctx).Warn("token requested for unknown user", "uid", uid)
			return nil, ErrUnknownUser
		}
		return nil, err
	}

	tok, exp, err := s.tokens.Issue(uid)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Token{Token: tok, ExpiresAt: exp}, nil
}

// Register creates the user unless the uid exists, in which case the stored
// record is returned untouched. created reports which happened.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, created bool, err error) {
	role := models.Role(in.Role)
	if role == "" {
		role = models.RoleBuyer
	}
	if role == models.RoleAdmin || !role.Valid() {
		return nil, false, fmt.Errorf("%w: role %q cannot be self-assigned", ErrInvalidInput, in.Role)
	}

	u := &models.User{
		UID:       in.UID,
		Name:      in.Name,
		Email:     in.Email,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	if role == models.RoleSeller {
		u.Status = models.StatusUnverified
	}

	user, created, err = s.users.CreateIfAbsent(ctx, u)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.bus.FireAsync(ctx, event.Event{
			Name: EventUserRegistered,
			Key:  user.UID,
			Data: map[string]any{"role": user.Role},
		})
	}
	return user, created, nil
}

// RoleCheck reports the role flags of uid. An unknown uid has every flag false.
func (s *UserService) RoleCheck(ctx context.Context, uid string) (RoleFlags, error) {
	u, err := s.users.FindByUID(ctx, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		return RoleFlags{}, nil
	}
	if err != nil {
		return RoleFlags{}, err
	}
	return RoleFlags{
		IsBuyer:    u.Role == models.RoleBuyer,
		IsSeller:   u.Role == models.RoleSeller,
		IsAdmin:    u.Role == models.RoleAdmin,
		IsVerified: u.IsVerifiedSeller(),
	}, nil
}

func (s *UserService) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	r := models.Role(role)
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return s.users.ListByRole(ctx, r)
}

// VerifySeller marks the seller verified. Repeating it is a no-op.
func (s *UserService) VerifySeller(ctx context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: seller uid is required", ErrInvalidInput)
	}
	u, err := s.users.SetSellerStatus(ctx, uid, models.StatusVerified)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: no seller %s", ErrNotFound, uid)
		}
		return nil, err
	}

	logger.WithCtx(ctx).Info("seller verified", "seller", uid)
	s.bus.FireAsync(ctx, event.Event{Name: EventSellerVerified, Key: uid})
	return u, nil
}

// DeleteUser removes uid. An admin cannot remove their own record.
func (s *UserService) DeleteUser(ctx context.Context, adminUID, uid string) error {
	if uid == "" {
		return fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}
	if uid == adminUID {
		return fmt.Errorf("%w: admins cannot delete themselves", ErrInvalidInput)
	}
	if err := s.users.Delete(ctx, uid); err != nil {
		return storeErr(err)
	}

	logger.WithCtx(ctx).Info("user deleted", "target", uid)
	s.bus.FireAsync(ctx, event.Event{Name: EventUserDeleted, Key: uid})
	return nil
}

// PromoteAdmin grants the admin role. It backs the promote-admin command and
// has no HTTP route.
func (s *UserService) PromoteAdmin(ctx context.Context, uid string) error {
	if err := s.users.SetRole(ctx, uid, models.RoleAdmin); err != nil {
		return storeErr(err)
	}
	logger.WithCtx(ctx).Info("user promoted to admin", "uid", uid)
	return nil
}
