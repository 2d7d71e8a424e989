package services

import (
	"context"
	"fmt"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/app/repositories"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/event"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
)

// ModerationService handles product reports. Counters only move through the
// store's atomic increment; a count sent by the client is never trusted.
type ModerationService struct {
	products repositories.ProductStore
	bus      *event.Bus
}

func NewModerationService(products repositories.ProductStore, bus *event.Bus) *ModerationService {
	return &ModerationService{products: products, bus: bus}
}

// Report adds one report to productID on behalf of reporterUID.
func (s *ModerationService) Report(ctx context.Context, reporterUID, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	p, err := s.products.IncrementReport(ctx, productID)
	if err != nil {
		return nil, storeErr(err)
	}

	metrics.ReportsTotal.Inc()
	logger.WithCtx(ctx).Info("product reported", "product", productID, "report_count", p.ReportCount)
	s.bus.FireAsync(ctx, event.Event{
		Name: EventProductReported,
		Key:  productID,
		Data: map[string]any{"reporter_uid": reporterUID, "report_count": p.ReportCount},
	})
	return p, nil
}

// Clear resets the reported flag. The report counter is history and stays.
func (s *ModerationService) Clear(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	p, err := s.products.ClearReport(ctx, productID)
	if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

func (s *ModerationService) ListReported(ctx context.Context) ([]models.Product, error) {
	return s.products.ListReported(ctx)
}
