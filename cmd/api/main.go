package main

import (
	"os"

	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
	"github.com/pkontaxis/thesisdesk/internal/server"
)

// @title ThesisDesk API
// @version 1.0
// @description Thesis workflow management API for students, instructors and the department secretary.

// @contact.name API Support
// @contact.email support@thesisdesk.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully")
}
