package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmehdi/libraryms-server/internal/api"
	"github.com/lmehdi/libraryms-server/internal/config"
	"github.com/lmehdi/libraryms-server/internal/notify"
	"github.com/lmehdi/libraryms-server/internal/repository"
	"github.com/lmehdi/libraryms-server/internal/service"
	"github.com/lmehdi/libraryms-server/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	logger := utils.NewLogger()
	handler := api.NewHandler(svc, logger, notify.NewLogNotifier(logger))

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})
	router.Use(api.RequestIDMiddleware())

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
