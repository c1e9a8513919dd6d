package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product statuses
const (
	ProductStatusDraft        = "draft"
	ProductStatusActive       = "active"
	ProductStatusInactive     = "inactive"
	ProductStatusOutOfStock   = "out-of-stock"
	ProductStatusDiscontinued = "discontinued"
)

// ProductPrice is the price block of a product
type ProductPrice struct {
	Amount   float64 `bson:"amount" json:"amount"`
	Original float64 `bson:"original,omitempty" json:"original,omitempty"`
	Currency string  `bson:"currency" json:"currency"`
}

// ProductImage is one listed image of a product
type ProductImage struct {
	URL       string `bson:"url" json:"url"`
	Alt       string `bson:"alt,omitempty" json:"alt,omitempty"`
	IsPrimary bool   `bson:"is_primary" json:"is_primary"`
}

// Inventory tracks stock for a product
type Inventory struct {
	Stock             int    `bson:"stock" json:"stock"`
	SKU               string `bson:"sku,omitempty" json:"sku,omitempty"`
	LowStockThreshold int    `bson:"low_stock_threshold" json:"low_stock_threshold"`
	TrackInventory    bool   `bson:"track_inventory" json:"track_inventory"`
}

// VariantOption is one selectable value of a product variant
type VariantOption struct {
	Value string  `bson:"value" json:"value"`
	Price float64 `bson:"price,omitempty" json:"price,omitempty"`
	Stock int     `bson:"stock,omitempty" json:"stock,omitempty"`
	SKU   string  `bson:"sku,omitempty" json:"sku,omitempty"`
	Image string  `bson:"image,omitempty" json:"image,omitempty"`
}

// ProductVariant is a named variant axis (e.g. size, color)
type ProductVariant struct {
	Name    string          `bson:"name" json:"name"`
	Options []VariantOption `bson:"options" json:"options"`
}

// CustomizationOption is one buyer-customizable attribute of a product
type CustomizationOption struct {
	Name           string  `bson:"name" json:"name"`
	Type           string  `bson:"type" json:"type"` // text, color, size, material
	Required       bool    `bson:"required" json:"required"`
	AdditionalCost float64 `bson:"additional_cost" json:"additional_cost"`
}

// Customization describes what a buyer can customize on a product
type Customization struct {
	Available bool                  `bson:"available" json:"available"`
	Options   []CustomizationOption `bson:"options,omitempty" json:"options,omitempty"`
}

// Ratings is the aggregated review summary of a product
type Ratings struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Product represents an artisan product listing
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"` // handicrafts, textiles, agro-products, local-foods, jewelry, pottery, woodwork, metalwork, other
	Subcategory   string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Price         ProductPrice       `bson:"price" json:"price"`
	Images        []ProductImage     `bson:"images,omitempty" json:"images,omitempty"`
	Inventory     Inventory          `bson:"inventory" json:"inventory"`
	SellerID      primitive.ObjectID `bson:"seller_id" json:"seller_id"`
	SellerName    string             `bson:"seller_name,omitempty" json:"seller_name,omitempty"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	Verified      bool               `bson:"verified" json:"verified"`
	Featured      bool               `bson:"featured" json:"featured"`
	Status        string             `bson:"status" json:"status"`
	Variants      []ProductVariant   `bson:"variants,omitempty" json:"variants,omitempty"`
	Customization Customization      `bson:"customization,omitempty" json:"customization,omitempty"`
	Ratings       Ratings            `bson:"ratings" json:"ratings"`
}

// InStock reports whether the requested quantity can be fulfilled. Products
// that do not track inventory are always in stock.
func (p *Product) InStock(quantity int) bool {
	if !p.Inventory.TrackInventory {
		return true
	}
	return p.Inventory.Stock >= quantity
}
