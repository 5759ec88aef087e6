package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/KrampusTON/indyback/handlers"
	"github.com/KrampusTON/indyback/middleware"
	"github.com/KrampusTON/indyback/models"
	"github.com/KrampusTON/indyback/services"
	"github.com/KrampusTON/indyback/utils"
	"github.com/KrampusTON/indyback/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // JSON API only
	})

	app.Use(middleware.RequestLogMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Address, X-Signature",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.UserTask{},
		&models.ReferralTransaction{},
		&models.ReferralCommission{},
		&models.NftReward{},
		&models.ClaimAttempt{},
		&models.SaleSnapshot{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if os.Getenv("R2_BUCKET_NAME") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set — commission export disabled")
	}

	blockchainService := services.NewBlockchainService()
	twitterService := services.NewTwitterService()

	taskService := services.NewTaskService(db, twitterService)
	milestoneService := services.NewMilestoneService(db)
	referralService := services.NewReferralService(db, taskService)
	commissionService := services.NewCommissionService(db, taskService, milestoneService)
	claimService := services.NewClaimService(db, blockchainService)
	saleService := services.NewSaleService(db, blockchainService)
	exportService := services.NewExportService(db)

	if err := taskService.EnsureDefaultTasks(); err != nil {
		log.Fatal("failed to seed default tasks:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go workers.PollSaleData(ctx, saleService, 60*time.Second)
	claimService.StartAttemptSweeper()

	handlers.SetupReferralRoutes(app, referralService)
	handlers.SetupSaleRoutes(app, commissionService, saleService)
	handlers.SetupTaskRoutes(app, taskService, claimService)
	handlers.SetupAdminRoutes(app, taskService, exportService)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Indyback API is running"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Sale data polling running (every 60s)")
	log.Println("✅ Claim attempt sweeper running (every 1m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
