package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoicing-backend/jobs"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process background tasks such as low stock alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info("worker started")
		return jobs.NewWorker(redisClientOpt(cfg), log).Run(ctx)
	},
}
