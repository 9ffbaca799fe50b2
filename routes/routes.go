package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"invoicing-backend/config"
	"invoicing-backend/controllers"
	"invoicing-backend/database"
	"invoicing-backend/invoicing"
	"invoicing-backend/middlewares"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	DB       *gorm.DB
	Service  *invoicing.Service
	Invoices *database.InvoiceStore
	Catalog  *database.Catalog
	Resolver *database.OrganizationResolver
	Log      *zap.Logger
	// PendingKeyTTL is how long an unfinished Idempotency-Key blocks retries.
	// Zero keeps pending keys until they are released.
	PendingKeyTTL time.Duration
}

// NewApp builds the fiber app with global middleware and all routes.
func NewApp(cfg *config.Config, d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middlewares.ErrorHandler(d.Log),
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middlewares.RequestLogger(d.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // bearer tokens, no cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWin,
	}))

	if d.PendingKeyTTL == 0 {
		// the commit phase and its rollback each get CommitTimeout
		d.PendingKeyTTL = 2 * cfg.CommitTimeout
	}
	Register(app, []byte(cfg.JWTSecret), d)
	return app
}

// Register wires all HTTP routes.
func Register(app *fiber.App, secret []byte, d Deps) {
	ctl := controllers.New(d.Service, d.Invoices, d.Catalog, d.Resolver)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/api")
	api.Use(middlewares.IsAuthenticatedHeader(secret))

	// Bootstrap acts on the user, not on a resolved organization.
	api.Post("/org/bootstrap", ctl.Bootstrap)

	tenant := api.Group("", middlewares.ResolveTenant(d.Resolver), middlewares.Idempotency(d.DB, d.Log, d.PendingKeyTTL))

	tenant.Get("/org/whoami", ctl.WhoAmI)

	tenant.Post("/invoices", ctl.CreateInvoice)
	tenant.Get("/invoices", ctl.ListInvoices)
	tenant.Get("/invoices/:id", ctl.GetInvoice)

	tenant.Get("/customers", ctl.GetCustomers)
	tenant.Get("/customers/:id", ctl.GetCustomer)

	tenant.Get("/products", ctl.GetProducts)
	tenant.Get("/products/:id", ctl.GetProduct)
}
