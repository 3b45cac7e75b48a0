package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"settlement-ledger-backend/internal/config"
	"settlement-ledger-backend/internal/models"
	"settlement-ledger-backend/internal/routes"
)

func main() {
	log := config.GetLogger()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on system env")
	}

	db := config.InitDB()

	db.AutoMigrate(
		&models.SettlementBatch{},
		&models.SourceRow{},
		&models.JournalLine{},
		&models.InvoiceLine{},
		&models.PaymentRecord{},
		&models.SettlementReport{},
	)

	glMap, err := config.LoadGLMapping()
	if err != nil {
		log.WithError(err).Fatal("failed to load GL mapping")
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, glMap)

	r.Run(":8080")
}
