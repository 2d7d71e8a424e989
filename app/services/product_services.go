package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
)

// ProductInput is a new listing.
type ProductInput struct {
	CategoryID    string  `json:"category_id"    validate:"required"`
	Name          string  `json:"name"           validate:"required,max=200"`
	Image         string  `json:"image"          validate:"nullable,url"`
	Condition     string  `json:"condition"      validate:"nullable,max=50"`
	Location      string  `json:"location"       validate:"nullable,max=200"`
	ResellPrice   float64 `json:"resell_price"   validate:"gt=0"`
	OriginalPrice float64 `json:"original_price" validate:"nullable,gt=0"`
}

// ProductService manages a seller's own listings.
type ProductService struct {
	products repositories.ProductStore
	bus      *event.Bus
	now      func() time.Time
	newID    func() string
}

func NewProductService(products repositories.ProductStore, bus *event.Bus) *ProductService {
	return &ProductService{
		products: products,
		bus:      bus,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerUID string) ([]models.Product, error) {
	return s.products.ListBySeller(ctx, sellerUID)
}

// Create lists a product owned by sellerUID.
func (s *ProductService) Create(ctx context.Context, sellerUID string, in ProductInput) (*models.Product, error) {
	p := &models.Product{
		ID:            s.newID(),
		SellerUID:     sellerUID,
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Image:         in.Image,
		Condition:     in.Condition,
		Location:      in.Location,
		ResellPrice:   in.ResellPrice,
		OriginalPrice: in.OriginalPrice,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.bus.FireAsync(ctx, event.Event{
		Name: EventProductCreated,
		Key:  p.ID,
		Data: map[string]any{"seller_uid": sellerUID, "price": p.ResellPrice},
	})
	return p, nil
}

// Promote advertises an unsold product. Only a verified seller may promote,
// and only their own listing.
func (s *ProductService) Promote(ctx context.Context, seller *models.User, productID string) (*models.Product, error) {
	if !seller.IsVerifiedSeller() {
		return nil, ErrUnverifiedSeller
	}
	if err := s.owned(ctx, seller.UID, productID); err != nil {
		return nil, err
	}

	p, err := s.products.SetPromote(ctx, productID, seller.UID, true)
	if errors.Is(err, repositories.ErrNotFound) {
		// Sold or removed between the check and the update.
		return nil, fmt.Errorf("%w: product %s is no longer available", ErrConflictingState, productID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes an unsold product owned by sellerUID.
func (s *ProductService) Delete(ctx context.Context, sellerUID, productID string) error {
	if err := s.owned(ctx, sellerUID, productID); err != nil {
		return err
	}
	if err := s.products.DeleteUnsold(ctx, productID, sellerUID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: product %s is no longer available", ErrConflictingState, productID)
		}
		return err
	}

	logger.WithCtx(ctx).Info("product deleted", "product", productID)
	return nil
}

// owned checks the product exists, belongs to sellerUID and is unsold.
func (s *ProductService) owned(ctx context.Context, sellerUID, productID string) error {
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return storeErr(err)
	}
	if p.SellerUID != sellerUID {
		return ErrOwnershipMismatch
	}
	if p.OrderStatus {
		return fmt.Errorf("%w: product %s is sold", ErrConflictingState, productID)
	}
	return nil
}
