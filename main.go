package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"checkops/config"
	"checkops/connection"
	"checkops/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found or failed to load")
	}

	cfg, err := config.Load(os.Getenv("CHECKOPS_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	gin.SetMode(gin.ReleaseMode)
	if err := connection.StartServer(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}
