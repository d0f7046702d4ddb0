package handlers

import (
	"fmt"
	"strings"

	"productapi/internal/models"
	"productapi/internal/services"
	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *Validator
	log      *logger.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, validate *Validator, log *logger.Logger) *ProductHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductHandler{
		service:  service,
		validate: validate,
		log:      log,
	}
}

// RegisterRoutes registers the product routes with the Fiber router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}		models.ProductResponse
//	@Failure	500	{object}	models.ErrorResponse
//	@Router		/products [get]
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
//
//	@Summary	Get a product
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"Product ID"
//	@Success	200	{object}	models.ProductResponse
//	@Failure	400	{object}	models.ErrorResponse
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/products/{id} [get]
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Product ID must be an integer", nil)
	}

	product, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if product == nil {
		return respondError(c, h.log, &services.NotFoundError{ID: id})
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
//
//	@Summary	Create a product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		product	body		models.CreateProductRequest	true	"Product to create"
//	@Success	201		{object}	models.ProductResponse
//	@Failure	400		{object}	models.ErrorResponse
//	@Router		/products [post]
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req models.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if fields := h.validate.Struct(req); fields != nil {
		return badRequest(c, "Validation failed", fields)
	}

	product, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	c.Location(fmt.Sprintf("%s/%d", strings.TrimRight(c.Path(), "/"), product.ID))
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct partially updates an existing product. Omitted fields
// keep their stored values.
//
//	@Summary	Update a product
//	@Tags		products
//	@Accept		json
//	@Param		id		path	int							true	"Product ID"
//	@Param		product	body	models.UpdateProductRequest	true	"Fields to change"
//	@Success	204
//	@Failure	400	{object}	models.ErrorResponse
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/products/{id} [put]
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Product ID must be an integer", nil)
	}

	var req models.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if fields := h.validate.Struct(req); fields != nil {
		return badRequest(c, "Validation failed", fields)
	}

	if err := h.service.Update(c.UserContext(), id, req); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDeleteProduct deletes a product by its ID.
//
//	@Summary	Delete a product
//	@Tags		products
//	@Param		id	path	int	true	"Product ID"
//	@Success	204
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/products/{id} [delete]
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Product ID must be an integer", nil)
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
