package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"invoicing-backend/cache"
	"invoicing-backend/config"
	"invoicing-backend/database"
	"invoicing-backend/invoicing"
	"invoicing-backend/jobs"
	"invoicing-backend/routes"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := database.Connect(ctx, cfg, log)
		if err != nil {
			return err
		}
		if autoMigrate {
			if err := database.Migrate(db); err != nil {
				return err
			}
		}

		seq, closeSeq, err := sequencer(ctx, db)
		if err != nil {
			return err
		}
		defer closeSeq()

		opts := invoicing.Options{
			CatalogPricing:          !cfg.PricingTrustClient,
			FallbackOnSequenceError: cfg.NumberingFallbackOnError,
			CommitTimeout:           cfg.CommitTimeout,
			Logger:                  log,
		}
		if cfg.LowStockAlerts {
			client := asynq.NewClient(redisClientOpt(cfg))
			defer client.Close()
			opts.Notifier = jobs.NewNotifier(client)
		}

		invoices := database.NewInvoiceStore(db)
		catalog := database.NewCatalog(db)
		svc := invoicing.NewService(invoices, catalog, seq, database.NewInventoryLedger(db), opts)

		app := routes.NewApp(cfg, routes.Deps{
			DB:       db,
			Service:  svc,
			Invoices: invoices,
			Catalog:  catalog,
			Resolver: database.NewOrganizationResolver(db, cfg.DefaultOrganizationName),
			Log:      log,
		})

		errCh := make(chan error, 1)
		go func() {
			log.Info("api listening", zap.String("port", cfg.Port), zap.String("numbering", cfg.NumberingBackend))
			errCh <- app.Listen(":" + cfg.Port)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		log.Info("shutting down")
		return app.ShutdownWithTimeout(cfg.CommitTimeout + 5*time.Second)
	},
}

// sequencer picks the invoice number source configured by NUMBERING_BACKEND.
func sequencer(ctx context.Context, db *gorm.DB) (invoicing.Sequencer, func(), error) {
	if cfg.NumberingBackend != config.NumberingRedis {
		return database.NewSequenceAllocator(db), func() {}, nil
	}
	client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("redis close", zap.Error(err))
		}
	}
	return cache.NewRedisSequencer(client), closeFn, nil
}

func redisClientOpt(c *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply schema migrations before serving")
}
