package handlers

import (
	"productapi/internal/services"
	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// StockHandler handles HTTP requests that read or adjust product stock.
type StockHandler struct {
	service *services.StockService
	log     *logger.Logger
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(service *services.StockService, log *logger.Logger) *StockHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StockHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the stock routes with the Fiber router.
func (h *StockHandler) RegisterRoutes(router fiber.Router) {
	stockRoutes := router.Group("/products")
	stockRoutes.Put("/decrement-stock/:id/:quantity", h.HandleDecrementStock)
	stockRoutes.Put("/add-to-stock/:id/:quantity", h.HandleAddToStock)
	stockRoutes.Get("/:id/stock", h.HandleGetStock)
}

// HandleDecrementStock removes stock from a product.
//
//	@Summary	Decrement stock
//	@Tags		stock
//	@Produce	json
//	@Param		id			path		int	true	"Product ID"
//	@Param		quantity	path		int	true	"Units to remove"
//	@Success	200			{object}	models.StockResponse
//	@Failure	400			{object}	models.ErrorResponse
//	@Failure	404			{object}	models.ErrorResponse
//	@Failure	409			{object}	models.ErrorResponse
//	@Router		/products/decrement-stock/{id}/{quantity} [put]
func (h *StockHandler) HandleDecrementStock(c *fiber.Ctx) error {
	id, quantity, err := stockParams(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	stock, err := h.service.Decrement(c.UserContext(), id, quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stock)
}

// HandleAddToStock adds stock to a product.
//
//	@Summary	Add stock
//	@Tags		stock
//	@Produce	json
//	@Param		id			path		int	true	"Product ID"
//	@Param		quantity	path		int	true	"Units to add"
//	@Success	200			{object}	models.StockResponse
//	@Failure	400			{object}	models.ErrorResponse
//	@Failure	404			{object}	models.ErrorResponse
//	@Router		/products/add-to-stock/{id}/{quantity} [put]
func (h *StockHandler) HandleAddToStock(c *fiber.Ctx) error {
	id, quantity, err := stockParams(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	stock, err := h.service.AddToStock(c.UserContext(), id, quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stock)
}

// HandleGetStock returns the current stock record of a product.
//
//	@Summary	Get stock
//	@Tags		stock
//	@Produce	json
//	@Param		id	path		int	true	"Product ID"
//	@Success	200	{object}	models.StockResponse
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/products/{id}/stock [get]
func (h *StockHandler) HandleGetStock(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Product ID must be an integer", nil)
	}

	stock, err := h.service.GetStock(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stock)
}

// stockParams parses the id and quantity path parameters. Quantities must be
// strictly positive and are rejected here before the service runs.
func stockParams(c *fiber.Ctx) (int, int, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, 0, &services.ValidationError{Field: "id", Reason: "must be an integer"}
	}
	quantity, err := c.ParamsInt("quantity")
	if err != nil || quantity <= 0 {
		return 0, 0, &services.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	return id, quantity, nil
}
