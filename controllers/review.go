package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ruralreach/models"
	"ruralreach/store"
)

// ReviewController handles product review requests
type ReviewController struct {
	Collection        *mongo.Collection
	ProductCollection *mongo.Collection
	Orders            OrderStore
}

// NewReviewController creates a new ReviewController
func NewReviewController(client *mongo.Client, dbName string, orders OrderStore) *ReviewController {
	db := client.Database(dbName)
	return &ReviewController{
		Collection:        db.Collection("reviews"),
		ProductCollection: db.Collection("products"),
		Orders:            orders,
	}
}

// CreateReview records a buyer's review. The purchase is verified against
// the buyer's delivered orders.
func (rc *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var review models.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if review.Rating < 1 || review.Rating > 5 {
		http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	review.BuyerID = userID
	review.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The review is a verified purchase if the referenced order is a
	// delivered order of this buyer containing the product
	review.VerifiedPurchase = false
	if !review.OrderID.IsZero() {
		order, err := rc.Orders.Get(ctx, review.OrderID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Failed to verify purchase", http.StatusInternalServerError)
			return
		}
		if order != nil && order.BuyerID == userID && order.Status == models.OrderStatusDelivered {
			for _, item := range order.Items {
				if item.ProductID == review.ProductID {
					review.VerifiedPurchase = true
					break
				}
			}
		}
	}

	result, err := rc.Collection.InsertOne(ctx, review)
	if err != nil {
		http.Error(w, "Error creating review", http.StatusInternalServerError)
		return
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = id
	}

	rc.refreshProductRatings(ctx, review.ProductID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(review)
}

// GetProductReviews lists reviews of one product, newest first
func (rc *ReviewController) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := rc.Collection.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		http.Error(w, "Error fetching reviews", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		http.Error(w, "Error reading reviews", http.StatusInternalServerError)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reviews)
}

// refreshProductRatings recomputes a product's rating summary from its
// reviews. Best effort: a failure here does not fail the review write.
func (rc *ReviewController) refreshProductRatings(ctx context.Context, productID primitive.ObjectID) {
	cursor, err := rc.Collection.Find(ctx, bson.M{"product_id": productID})
	if err != nil {
		return
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil || len(reviews) == 0 {
		return
	}

	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	ratings := models.Ratings{
		Average: float64(sum) / float64(len(reviews)),
		Count:   len(reviews),
	}

	_, _ = rc.ProductCollection.UpdateOne(ctx, bson.M{"_id": productID},
		bson.M{"$set": bson.M{"ratings": ratings}})
}
