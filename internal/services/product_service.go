package services

import (
	"context"
	"errors"
	"strings"

	"productapi/internal/models"
	"productapi/internal/repositories"
	"productapi/internal/telemetry"
	"productapi/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	log    *logger.Logger
	events eventEmitter
}

// NewProductService creates a new ProductService. A nil publisher disables events.
func NewProductService(repo repositories.ProductRepository, log *logger.Logger, publisher EventPublisher) *ProductService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductService{
		repo:   repo,
		log:    log,
		events: eventEmitter{publisher: publisher, log: log},
	}
}

// List retrieves all products.
func (s *ProductService) List(ctx context.Context) ([]models.ProductResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ProductService.List")
	defer span.End()

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, &OperationError{Op: OpRetrieve, Err: err})
	}

	out := make([]models.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	span.SetAttributes(attribute.Int("product.count", len(out)))
	return out, nil
}

// GetByID retrieves a single product. It returns nil and no error when the
// product does not exist.
func (s *ProductService) GetByID(ctx context.Context, id int) (*models.ProductResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ProductService.GetByID",
		trace.WithAttributes(attribute.Int("product.id", id)))
	defer span.End()

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, &OperationError{Op: OpRetrieve, ID: id, Err: err})
	}
	if product == nil {
		return nil, nil
	}
	resp := toProductResponse(product)
	return &resp, nil
}

// Create persists a new product. The ID is always assigned by the store.
func (s *ProductService) Create(ctx context.Context, req models.CreateProductRequest) (*models.ProductResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ProductService.Create")
	defer span.End()

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	product := newProductFromRequest(req)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, s.fail(ctx, span, &OperationError{Op: OpCreate, Err: err})
	}

	span.SetAttributes(attribute.Int("product.id", product.ID))
	telemetry.ProductsCreated.Add(ctx, 1)
	s.log.Ctx(ctx).Info().Int("product_id", product.ID).Msg("product created")

	stock := product.Stock
	s.events.emit(ctx, Event{Type: EventProductCreated, ProductID: product.ID, Quantity: &stock})

	resp := toProductResponse(product)
	return &resp, nil
}

// Update applies a partial update: only non-nil request fields are written,
// so an omitted stock never overwrites a concurrent adjustment.
func (s *ProductService) Update(ctx context.Context, id int, req models.UpdateProductRequest) error {
	ctx, span := telemetry.Tracer().Start(ctx, "ProductService.Update",
		trace.WithAttributes(attribute.Int("product.id", id)))
	defer span.End()

	if err := validateUpdate(req); err != nil {
		return err
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return s.fail(ctx, span, &OperationError{Op: OpUpdate, ID: id, Err: err})
	}
	if !exists {
		return &NotFoundError{ID: id}
	}

	if err := s.repo.Update(ctx, id, toProductChanges(req)); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return &NotFoundError{ID: id}
		}
		return s.fail(ctx, span, &OperationError{Op: OpUpdate, ID: id, Err: err})
	}

	s.log.Ctx(ctx).Info().Int("product_id", id).Msg("product updated")
	s.events.emit(ctx, Event{Type: EventProductUpdated, ProductID: id, Quantity: req.Stock})
	return nil
}

// Delete removes a product and its stock record.
func (s *ProductService) Delete(ctx context.Context, id int) error {
	ctx, span := telemetry.Tracer().Start(ctx, "ProductService.Delete",
		trace.WithAttributes(attribute.Int("product.id", id)))
	defer span.End()

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return s.fail(ctx, span, &OperationError{Op: OpDelete, ID: id, Err: err})
	}
	if !exists {
		return &NotFoundError{ID: id}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return &NotFoundError{ID: id}
		}
		return s.fail(ctx, span, &OperationError{Op: OpDelete, ID: id, Err: err})
	}

	telemetry.ProductsDeleted.Add(ctx, 1)
	s.log.Ctx(ctx).Info().Int("product_id", id).Msg("product deleted")
	s.events.emit(ctx, Event{Type: EventProductDeleted, ProductID: id})
	return nil
}

func (s *ProductService) fail(ctx context.Context, span trace.Span, err *OperationError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Op))
	s.log.Ctx(ctx).Error().Err(err.Err).Str("op", string(err.Op)).Int("product_id", err.ID).Msg("product store fault")
	return err
}

func validateCreate(req models.CreateProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if req.Price == nil {
		return &ValidationError{Field: "price", Reason: "is required"}
	}
	if req.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if req.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

func validateUpdate(req models.UpdateProductRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if req.Price != nil && req.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if req.Stock != nil && *req.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

func newProductFromRequest(req models.CreateProductRequest) *models.Product {
	return &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       req.Stock,
	}
}

func toProductChanges(req models.UpdateProductRequest) repositories.ProductChanges {
	return repositories.ProductChanges{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
}

func toProductResponse(p *models.Product) models.ProductResponse {
	return models.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
