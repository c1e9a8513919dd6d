package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ruralreach/models"
)

var (
	// ErrNotFound is returned when no order matches the given id.
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned when a save loses the revision
	// compare-and-swap: the stored document changed since it was loaded.
	ErrConflict = errors.New("order was modified concurrently")
	// ErrDuplicate is returned when an order number collides.
	ErrDuplicate = errors.New("order number already exists")
)

// Orders persists Order aggregates as whole documents. Every save is a
// compare-and-swap on the revision field, so concurrent writers cannot
// silently overwrite each other.
type Orders struct {
	collection *mongo.Collection
}

// NewOrders wires the orders collection and ensures its indexes.
func NewOrders(client *mongo.Client, dbName string) (*Orders, error) {
	collection := client.Database(dbName).Collection("orders")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "items.seller_id", Value: 1}}},
		{Keys: bson.D{{Key: "payment.status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order indexes: %w", err)
	}

	return &Orders{collection: collection}, nil
}

// Insert stores a new order at revision 1.
func (s *Orders) Insert(ctx context.Context, order *models.Order) error {
	order.Finalize()
	order.Revision = 1
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	result, err := s.collection.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

// Get loads one order by id.
func (s *Orders) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// GetByNumber loads one order by its order number.
func (s *Orders) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.collection.FindOne(ctx, bson.M{"order_number": orderNumber}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// Save replaces the whole stored document, conditional on the revision the
// order was loaded at. On a lost race the in-memory order is left unchanged
// and ErrConflict is returned; the caller reloads and retries.
func (s *Orders) Save(ctx context.Context, order *models.Order) error {
	order.Finalize()

	loadedRevision := order.Revision
	order.Revision = loadedRevision + 1
	previousUpdatedAt := order.UpdatedAt
	order.UpdatedAt = time.Now()

	result, err := s.collection.ReplaceOne(
		ctx,
		bson.M{"_id": order.ID, "revision": loadedRevision},
		order,
	)
	if err != nil {
		order.Revision = loadedRevision
		order.UpdatedAt = previousUpdatedAt
		return fmt.Errorf("failed to save order: %w", err)
	}

	if result.MatchedCount == 0 {
		order.Revision = loadedRevision
		order.UpdatedAt = previousUpdatedAt

		count, countErr := s.collection.CountDocuments(ctx, bson.M{"_id": order.ID})
		if countErr == nil && count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}

	return nil
}

// FindByBuyer lists a buyer's orders, newest first, optionally filtered by
// status.
func (s *Orders) FindByBuyer(ctx context.Context, buyerID primitive.ObjectID, status string) ([]models.Order, error) {
	filter := bson.M{"buyer_id": buyerID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

// FindBySeller lists orders containing at least one of the seller's items,
// newest first, optionally filtered by status.
func (s *Orders) FindBySeller(ctx context.Context, sellerID primitive.ObjectID, status string) ([]models.Order, error) {
	filter := bson.M{"items.seller_id": sellerID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

func (s *Orders) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// Statistics aggregates orders created in the given range. A nil start
// defaults to 30 days ago, a nil end to now.
func (s *Orders) Statistics(ctx context.Context, start, end *time.Time) (*models.OrderStatistics, error) {
	from := time.Now().AddDate(0, 0, -30)
	if start != nil {
		from = *start
	}
	to := time.Now()
	if end != nil {
		to = *end
	}

	orders, err := s.find(ctx, bson.M{
		"created_at": bson.M{"$gte": from, "$lte": to},
	})
	if err != nil {
		return nil, err
	}

	stats := models.ComputeStatistics(orders)
	return &stats, nil
}

// MonthlySales aggregates the given calendar year's orders per month,
// excluding cancelled orders.
func (s *Orders) MonthlySales(ctx context.Context, year int) ([]models.MonthlySalesRow, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	orders, err := s.find(ctx, bson.M{
		"created_at": bson.M{"$gte": from, "$lt": to},
	})
	if err != nil {
		return nil, err
	}

	return models.ComputeMonthlySales(orders, year), nil
}
