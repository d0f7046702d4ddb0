package services

import (
	"context"
	"errors"

	"productapi/internal/models"
	"productapi/internal/repositories"
	"productapi/internal/telemetry"
	"productapi/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	directionDecrement = "decrement"
	directionAdd       = "add"
)

// StockService adjusts product stock quantities.
type StockService struct {
	repo   repositories.StockRepository
	log    *logger.Logger
	events eventEmitter
}

// NewStockService creates a new StockService. A nil publisher disables events.
func NewStockService(repo repositories.StockRepository, log *logger.Logger, publisher EventPublisher) *StockService {
	if log == nil {
		log = logger.Nop()
	}
	return &StockService{
		repo:   repo,
		log:    log,
		events: eventEmitter{publisher: publisher, log: log},
	}
}

// Decrement removes quantity units from the product's stock. It is
// all-or-nothing: a request larger than the stock on hand changes nothing.
func (s *StockService) Decrement(ctx context.Context, productID, quantity int) (*models.StockResponse, error) {
	return s.adjust(ctx, productID, quantity, directionDecrement)
}

// AddToStock adds quantity units to the product's stock.
func (s *StockService) AddToStock(ctx context.Context, productID, quantity int) (*models.StockResponse, error) {
	return s.adjust(ctx, productID, quantity, directionAdd)
}

// GetStock returns the current stock of a product. Products without a stock
// record report the quantity held on the product itself.
func (s *StockService) GetStock(ctx context.Context, productID int) (*models.StockResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "StockService.GetStock",
		trace.WithAttributes(attribute.Int("product.id", productID)))
	defer span.End()

	stock, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get stock")
		s.log.Ctx(ctx).Error().Err(err).Int("product_id", productID).Msg("failed to load stock")
		return nil, &OperationError{Op: OpRetrieve, ID: productID, Err: err}
	}
	if stock == nil {
		return nil, &NotFoundError{ID: productID}
	}
	return toStockResponse(stock), nil
}

func (s *StockService) adjust(ctx context.Context, productID, quantity int, direction string) (*models.StockResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "StockService."+direction,
		trace.WithAttributes(
			attribute.Int("product.id", productID),
			attribute.Int("stock.quantity", quantity),
		))
	defer span.End()

	if quantity <= 0 {
		s.record(ctx, direction, "invalid")
		return nil, &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	delta := quantity
	if direction == directionDecrement {
		delta = -quantity
	}

	stock, err := s.repo.Adjust(ctx, productID, delta)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrProductNotFound):
		s.record(ctx, direction, "not_found")
		return nil, &NotFoundError{ID: productID}
	case errors.Is(err, repositories.ErrInsufficientStock):
		s.record(ctx, direction, "insufficient")
		s.log.Ctx(ctx).Info().Int("product_id", productID).Int("requested", quantity).Msg("insufficient stock")
		return nil, &InsufficientStockError{ID: productID, Requested: quantity}
	case errors.Is(err, repositories.ErrStockOverflow):
		s.record(ctx, direction, "overflow")
		return nil, &ValidationError{Field: "quantity", Reason: "would exceed the maximum stock quantity"}
	default:
		s.record(ctx, direction, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "adjust stock")
		s.log.Ctx(ctx).Error().Err(err).Int("product_id", productID).Int("delta", delta).Msg("failed to adjust stock")
		return nil, &OperationError{Op: OpAdjustStock, ID: productID, Err: err}
	}

	s.record(ctx, direction, "ok")
	span.SetAttributes(attribute.Int("stock.remaining", stock.Quantity))
	s.log.Ctx(ctx).Info().
		Int("product_id", productID).
		Int("delta", delta).
		Int("quantity", stock.Quantity).
		Msg("stock adjusted")

	eventType := EventStockAdded
	if direction == directionDecrement {
		eventType = EventStockDecremented
	}
	remaining := stock.Quantity
	s.events.emit(ctx, Event{Type: eventType, ProductID: productID, Delta: delta, Quantity: &remaining})

	return toStockResponse(stock), nil
}

func (s *StockService) record(ctx context.Context, direction, outcome string) {
	telemetry.StockAdjustments.Add(ctx, 1, telemetry.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("outcome", outcome),
	))
}

func toStockResponse(s *models.Stock) *models.StockResponse {
	return &models.StockResponse{
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		UpdatedAt: s.UpdatedAt,
	}
}
