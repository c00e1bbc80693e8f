package main

import (
	adminctrl "github.com/lshigami/mockdrive/internal/controller/admin"
	userctrl "github.com/lshigami/mockdrive/internal/controller/user"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the expiry reaper",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			coreModule,
			repositoryModule,
			serviceModule,
			fx.Provide(
				NewGinEngine,
				userctrl.NewAttemptController,
				adminctrl.NewContentController,
			),
			fx.Invoke(RegisterRoutesAndStartServer),
			fx.Invoke(RunReaper),
			fx.Invoke(CloseDatabase),
		)
		// Run blocks until SIGINT/SIGTERM and then stops every hook in reverse order.
		app.Run()
		return app.Err()
	},
}
