// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"ruralreach/controllers"
	"ruralreach/middleware"
	"ruralreach/routes"
	"ruralreach/store"
	"ruralreach/utils"
)

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	// Set the JWT secret key
	utils.JwtKey = []byte(os.Getenv("JWT_SECRET"))

	// Initialize EmailService
	emailService := utils.NewEmailService()

	// Connect to MongoDB
	client := utils.ConnectDB()
	defer func() {
		if err = client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()

	dbName := utils.DatabaseName()

	// Order store with revision-checked saves
	orderStore, err := store.NewOrders(client, dbName)
	if err != nil {
		log.Fatalf("Failed to initialize order store: %v", err)
	}

	// Initialize controllers
	userController := controllers.NewUserController(client, dbName, emailService)
	productController := controllers.NewProductController(client, dbName)
	cartController := controllers.NewCartController(client, dbName)
	orderController := controllers.NewOrderController(client, dbName, orderStore, emailService)
	reviewController := controllers.NewReviewController(client, dbName, orderStore)

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware)

	// Register routes
	routes.RegisterRoutes(router, userController, productController, cartController, orderController, reviewController)

	// CORS and request logging around the whole router
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	handler := handlers.LoggingHandler(os.Stdout, corsHandler(router))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		log.Printf("Server is running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Orderly shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
