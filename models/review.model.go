package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a buyer's review of a purchased product
type Review struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID        primitive.ObjectID `bson:"product_id" json:"product_id"`
	BuyerID          primitive.ObjectID `bson:"buyer_id" json:"buyer_id"`
	OrderID          primitive.ObjectID `bson:"order_id,omitempty" json:"order_id,omitempty"`
	Rating           int                `bson:"rating" json:"rating"` // 1 to 5
	Comment          string             `bson:"comment,omitempty" json:"comment,omitempty"`
	VerifiedPurchase bool               `bson:"verified_purchase" json:"verified_purchase"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}
