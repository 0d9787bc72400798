package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/marisol/coachloop-api/internal/config"
	"github.com/marisol/coachloop-api/internal/database"
	"github.com/marisol/coachloop-api/internal/handlers"
	"github.com/marisol/coachloop-api/internal/logger"
	"github.com/marisol/coachloop-api/internal/routes"
	"github.com/marisol/coachloop-api/internal/services"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if err := database.Connect(cfg); err != nil {
		appLog.Fatal("failed to connect to database", "error", err.Error())
	}
	if err := database.Migrate(); err != nil {
		appLog.Fatal("failed to run migrations", "error", err.Error())
	}

	if err := services.InitPush(cfg.FCMServiceAccount, appLog); err != nil {
		appLog.Fatal("failed to initialize push service", "error", err.Error())
	}

	store := database.NewStore(database.DB)
	analyzer := services.NewAnalysisClient(cfg, appLog)
	services.InitPipeline(store, analyzer, appLog, handlers.CreateNotification)

	app := fiber.New(fiber.Config{
		AppName: "coachloop-api",
	})
	app.Use(recover.New())
	app.Use(cors.New())

	routes.Setup(app)

	appLog.Info("server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Fatal("server stopped", "error", err.Error())
	}
}
