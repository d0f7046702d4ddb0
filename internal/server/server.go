package server

import (
	"context"
	"errors"
	"os"
	"time"

	"productapi/internal/handlers"
	"productapi/internal/models"
	"productapi/internal/services"
	"productapi/pkg/logger"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Pinger reports whether the backing store is reachable.
type Pinger func(ctx context.Context) error

// Deps holds everything NewApp wires into the Fiber app.
type Deps struct {
	AppName        string
	ProductService *services.ProductService
	StockService   *services.StockService
	Log            *logger.Logger
	Ping           Pinger
	Tracing        bool
	AccessLog      bool
	DocsFile       string
}

// NewApp builds the Fiber application with middleware, health check, docs and
// the /api routes.
func NewApp(d Deps) *fiber.App {
	if d.Log == nil {
		d.Log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		AppName:      d.AppName,
		ErrorHandler: errorHandler(d.Log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	if d.Tracing {
		app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		})))
	}
	if d.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	// --- Health Check Endpoint ---
	app.Get("/health", healthHandler(d.Ping))

	// --- API Docs ---
	if d.DocsFile != "" {
		if _, err := os.Stat(d.DocsFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: d.DocsFile,
				Path:     "docs",
				Title:    "Product API",
			}))
		} else {
			d.Log.Debug().Str("file", d.DocsFile).Msg("swagger file not found, docs disabled")
		}
	}

	// --- API Routes ---
	api := app.Group("/api")
	validate := handlers.NewValidator()
	handlers.NewProductHandler(d.ProductService, validate, d.Log).RegisterRoutes(api)
	handlers.NewStockHandler(d.StockService, d.Log).RegisterRoutes(api)

	return app
}

func healthHandler(ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code, database := "healthy", fiber.StatusOK, "up"
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status, code, database = "unhealthy", fiber.StatusServiceUnavailable, "down"
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"database": database,
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}

// errorHandler answers errors that escape handlers, such as unmatched routes
// and recovered panics, with the common error body.
func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An unexpected error occurred"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		errCode := "internal_error"
		if code == fiber.StatusNotFound {
			errCode = "not_found"
		} else if code < fiber.StatusInternalServerError {
			errCode = "bad_request"
		}
		return c.Status(code).JSON(models.ErrorResponse{Code: errCode, Message: message})
	}
}
