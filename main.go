package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"civicreport-be/config"
	"civicreport-be/controllers"
	"civicreport-be/routes"
	"civicreport-be/services"
	"civicreport-be/store"
	"civicreport-be/uploads"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var st store.Store
	if config.Getenv("STORE", "mongo") == "memory" {
		st = store.NewMemoryStore()
		log.Println("Using in-memory store (development mode)")
	} else {
		db := config.ConnectDB()
		if db == nil {
			log.Fatal("Failed to connect to MongoDB")
		}
		mongoStore := store.NewMongoStore(db)
		if err := mongoStore.EnsureIndexes(context.Background()); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		st = mongoStore
		log.Println("MongoDB connection established successfully!")
	}

	config.ConnectRedis()

	uploadDir := config.Getenv("UPLOAD_DIR", "data/uploads")
	blobStore, err := uploads.NewStore(uploadDir)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	issueLimit, err := strconv.Atoi(config.Getenv("ISSUES_PER_DAY_LIMIT", "10"))
	if err != nil {
		log.Fatalf("Invalid ISSUES_PER_DAY_LIMIT: %v", err)
	}

	issueService := services.NewIssueService(st)
	authController := controllers.NewAuthController(st)
	issueController := controllers.NewIssueController(issueService, blobStore)

	r := gin.Default()
	r.Use(cors.Default())

	routes.AuthRoutes(r, authController, st)
	routes.IssueRoutes(r, issueController, st, issueLimit)
	routes.AdminRoutes(r, issueController, st)

	r.Static("/uploads", uploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	port := config.Getenv("PORT", "8080")
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
