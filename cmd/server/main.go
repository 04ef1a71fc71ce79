package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"contacts-service/internal/api"
	"contacts-service/internal/events"
	"contacts-service/internal/imaging"
	"contacts-service/internal/repository"
	"contacts-service/internal/service"
	"contacts-service/internal/store"
	"contacts-service/internal/token"
	"contacts-service/internal/tracing"
	_ "contacts-service/migrations"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables provided by Docker")
	}

	api.SetupGlobalLogger("contacts-service")

	shutdownTracer, err := tracing.Init("contacts-service")
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations()
		return
	}

	db := connectDB()
	defer db.Close()

	pendingStore, activeStore, resetStore := connectStores()

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	eventPublisher, err := events.NewNatsPublisher(natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	log.Println("Successfully connected to NATS.")

	imageHost, err := imaging.NewCloudinaryHost(
		os.Getenv("CLOUDINARY_CLOUD_NAME"),
		os.Getenv("CLOUDINARY_API_KEY"),
		os.Getenv("CLOUDINARY_API_SECRET"),
	)
	if err != nil {
		log.Fatalf("Failed to initialize Cloudinary: %v", err)
	}

	algorithm := os.Getenv("JWT_ALGORITHM")
	if algorithm == "" {
		algorithm = "HS256"
	}
	codec, err := token.NewCodec(os.Getenv("JWT_SECRET"), algorithm)
	if err != nil {
		log.Fatalf("Failed to configure token codec: %v", err)
	}

	userRepo := repository.NewPostgresUserRepository(db)
	contactRepo := repository.NewPostgresContactRepository(db)

	authService := service.NewAuthService(
		userRepo,
		pendingStore, activeStore, resetStore,
		codec,
		eventPublisher,
		imageHost,
	)
	contactService := service.NewContactService(contactRepo)

	authHandler := api.NewAuthHandler(authService)
	contactHandler := api.NewContactHandler(contactService)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	api.RegisterRoutes(app, authHandler, contactHandler, authService)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Listening contacts-service on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func databaseURL() string {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)
}

func connectDB() *sqlx.DB {
	db, err := sqlx.Connect("pgx", databaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func connectStores() (pending, active, resets store.Store) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	pass := os.Getenv("REDIS_PASSWORD")

	pendingStore, err := store.NewRedisStore(addr, pass, store.DBPendingRegistrations)
	if err != nil {
		log.Fatalf("Failed to connect to Redis (pending registrations): %v", err)
	}

	activeStore, err := store.NewRedisStore(addr, pass, store.DBActiveUsers)
	if err != nil {
		log.Fatalf("Failed to connect to Redis (active users): %v", err)
	}

	resetStore, err := store.NewRedisStore(addr, pass, store.DBPendingResets)
	if err != nil {
		log.Fatalf("Failed to connect to Redis (pending resets): %v", err)
	}

	log.Println("Successfully connected to Redis.")
	return pendingStore, activeStore, resetStore
}

func handleMigrations() {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", databaseURL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
