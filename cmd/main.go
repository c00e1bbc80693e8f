package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lshigami/mockdrive/internal/logger"
	"github.com/rs/zerolog/log"
)

// @title Mock Drive API
// @version 1.0
// @description Candidate attempts, component scoring and content maintenance for placement mock drives.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
