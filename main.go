package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/possibull/possiblejourney-sub000/api"
	"github.com/possibull/possiblejourney-sub000/config"
	"github.com/possibull/possiblejourney-sub000/database"
	"github.com/possibull/possiblejourney-sub000/middleware"
	"github.com/possibull/possiblejourney-sub000/models"
	"github.com/possibull/possiblejourney-sub000/repository"
	"github.com/possibull/possiblejourney-sub000/services"

	"gorm.io/gorm"
)

func main() {
	// Load application configuration
	config.LoadConfig() // Log prefixes are handled within LoadConfig

	// Initialize database connection
	db, err := database.Init()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	runMigrations(db)

	// Initialize Repositories
	programRepo := repository.NewProgramRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	measurementRepo := repository.NewMeasurementRepository(db)
	progressRepo := repository.NewDailyProgressRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	// Seed built-in catalogs on first run
	if config.AppConfig.Program.SeedDefaults {
		if err := templateRepo.SeedDefaults(); err != nil {
			log.Fatalf("FATAL: [Main] Failed to seed default templates: %v", err)
		}
		if err := metricRepo.SeedDefaults(); err != nil {
			log.Fatalf("FATAL: [Main] Failed to seed default metrics: %v", err)
		}
	}

	// Initialize Services
	dayService := services.NewDayService(programRepo, templateRepo, progressRepo)
	evaluationService := services.NewEvaluationService(metricRepo, measurementRepo, progressRepo)
	programService := services.NewProgramService(programRepo, templateRepo, progressRepo, dayService)
	log.Println("INFO: [Main] Services initialized.")

	// Initialize API Handler with all dependencies
	apiHandler := api.NewAPIHandler(
		programService,
		dayService,
		evaluationService,
		templateRepo,
		metricRepo,
		measurementRepo,
		progressRepo,
	)
	log.Println("INFO: [Main] API Handler initialized.")

	// Create Gin engine
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Register middlewares
	r.Use(middleware.Logger())
	r.Use(middleware.Cors())
	log.Println("INFO: [Main] Middlewares registered.")

	// Register routes
	apiHandler.RegisterRoutes(r.Group("/api"))
	log.Println("INFO: [Main] Routes registered.")

	// Start the server
	serverPort := ":" + config.AppConfig.Server.Port
	if config.AppConfig.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

func runMigrations(db *gorm.DB) {
	log.Println("INFO: [Main] Running database migrations...")
	err := db.AutoMigrate(
		&models.ProgramTemplate{},
		&models.Task{},
		&models.Program{},
		&models.Metric{},
		&models.ProgramMetric{},
		&models.Measurement{},
		&models.DailyProgress{},
		&models.TaskInstance{},
	)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	log.Println("INFO: [Main] Database migration completed.")
}
