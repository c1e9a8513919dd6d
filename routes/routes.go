// routes/routes.go
package routes

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ruralreach/controllers"
	"ruralreach/middleware"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router,
	userController *controllers.UserController,
	productController *controllers.ProductController,
	cartController *controllers.CartController,
	orderController *controllers.OrderController,
	reviewController *controllers.ReviewController) {

	// Public routes
	router.HandleFunc("/register", userController.Register).Methods("POST")
	router.HandleFunc("/login", userController.Login).Methods("POST")
	router.HandleFunc("/verify", userController.VerifyEmail).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public product and review routes
	router.HandleFunc("/products", productController.GetProducts).Methods("GET")
	router.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")
	router.HandleFunc("/products/{id}/reviews", reviewController.GetProductReviews).Methods("GET")

	// Authenticated routes
	authed := router.NewRoute().Subrouter()
	authed.Use(middleware.AuthMiddleware)
	authed.HandleFunc("/profile", userController.GetProfile).Methods("GET")
	authed.HandleFunc("/profile", userController.UpdateProfile).Methods("PUT")

	// Cart routes
	authed.HandleFunc("/cart", cartController.AddToCart).Methods("POST")
	authed.HandleFunc("/cart", cartController.GetCart).Methods("GET")
	authed.HandleFunc("/cart/{product_id}", cartController.RemoveFromCart).Methods("DELETE")

	// Order routes
	authed.HandleFunc("/orders", orderController.CreateOrder).Methods("POST")
	authed.HandleFunc("/orders", orderController.GetMyOrders).Methods("GET")
	authed.HandleFunc("/orders/{id}", orderController.GetOrder).Methods("GET")
	authed.HandleFunc("/orders/{id}/cancel", orderController.CancelOrder).Methods("POST")
	authed.HandleFunc("/orders/{id}/return", orderController.RequestReturn).Methods("POST")

	// Review routes
	authed.HandleFunc("/reviews", reviewController.CreateReview).Methods("POST")

	// Seller routes
	seller := router.NewRoute().Subrouter()
	seller.Use(middleware.AuthMiddleware)
	seller.Use(middleware.SellerMiddleware)
	seller.HandleFunc("/seller/products", productController.CreateProduct).Methods("POST")
	seller.HandleFunc("/seller/products/{id}", productController.UpdateProduct).Methods("PUT")
	seller.HandleFunc("/seller/products/{id}", productController.DeleteProduct).Methods("DELETE")
	seller.HandleFunc("/seller/orders", orderController.GetSellerOrders).Methods("GET")
	seller.HandleFunc("/seller/orders/{id}/tracking", orderController.UpdateTracking).Methods("PUT")
	seller.HandleFunc("/seller/orders/{id}/status", orderController.UpdateStatus).Methods("PUT")

	// Admin routes
	admin := router.NewRoute().Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/admin/users/{id}/status", userController.SetUserStatus).Methods("PUT")
	admin.HandleFunc("/admin/products/{id}/status", productController.SetProductStatus).Methods("PUT")
	admin.HandleFunc("/admin/orders/{id}/refund", orderController.ProcessRefund).Methods("POST")
	admin.HandleFunc("/admin/orders/statistics", orderController.GetStatistics).Methods("GET")
	admin.HandleFunc("/admin/orders/monthly-sales", orderController.GetMonthlySales).Methods("GET")
}
