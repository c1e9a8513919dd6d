package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ruralreach/models"
)

// ProductController handles product-related requests
type ProductController struct {
	Collection *mongo.Collection
}

// NewProductController creates a new ProductController
func NewProductController(client *mongo.Client, dbName string) *ProductController {
	collection := client.Database(dbName).Collection("products")
	return &ProductController{
		Collection: collection,
	}
}

// CreateProduct handles adding a new product (sellers only). Listings start
// as drafts until the seller activates them.
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var product models.Product
	// Decode the request body into product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if product.Title == "" || product.Price.Amount <= 0 {
		http.Error(w, "Title and a positive price are required", http.StatusBadRequest)
		return
	}

	product.ID = primitive.NilObjectID
	product.SellerID = userID
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}
	if product.Price.Currency == "" {
		product.Price.Currency = "INR"
	}

	// Insert the product into the database
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := pc.Collection.InsertOne(ctx, product)
	if err != nil {
		http.Error(w, "Error creating product", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// GetProducts retrieves active products, optionally filtered by category
// or seller
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{"status": models.ProductStatusActive}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}
	if seller := r.URL.Query().Get("seller"); seller != "" {
		sellerID, err := primitive.ObjectIDFromHex(seller)
		if err != nil {
			http.Error(w, "Invalid seller ID", http.StatusBadRequest)
			return
		}
		filter["seller_id"] = sellerID
	}
	if r.URL.Query().Get("featured") == "true" {
		filter["featured"] = true
	}

	var products []models.Product
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := pc.Collection.Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Error fetching products", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &products); err != nil {
		http.Error(w, "Error reading products", http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(products)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	id, err := primitive.ObjectIDFromHex(params["id"])
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var product models.Product
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

// UpdateProduct handles updating a product (owning seller or admin)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	params := mux.Vars(r)
	id, err := primitive.ObjectIDFromHex(params["id"])
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var existing models.Product
	if err := pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if claims.Role != models.RoleAdmin && existing.SellerID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Ownership and identity are not updatable
	product.ID = id
	product.SellerID = existing.SellerID

	result, err := pc.Collection.ReplaceOne(ctx, bson.M{"_id": id}, product)
	if err != nil {
		http.Error(w, "Error updating product", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(result)
}

// DeleteProduct handles deleting a product (owning seller or admin)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	userID, claims, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	params := mux.Vars(r)
	id, err := primitive.ObjectIDFromHex(params["id"])
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var existing models.Product
	if err := pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if claims.Role != models.RoleAdmin && existing.SellerID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	result, err := pc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		http.Error(w, "Error deleting product", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(result)
}

// SetProductStatus lets an admin moderate a listing (activate, deactivate,
// discontinue)
func (pc *ProductController) SetProductStatus(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	id, err := primitive.ObjectIDFromHex(params["id"])
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	switch body.Status {
	case models.ProductStatusDraft, models.ProductStatusActive, models.ProductStatusInactive,
		models.ProductStatusOutOfStock, models.ProductStatusDiscontinued:
	default:
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := pc.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": body.Status}})
	if err != nil {
		http.Error(w, "Error updating product status", http.StatusInternalServerError)
		return
	}
	if result.MatchedCount == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode("Product status updated successfully")
}
