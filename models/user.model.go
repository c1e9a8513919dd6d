package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleBuyer        = "buyer"
	RoleEntrepreneur = "entrepreneur"
	RoleAdmin        = "admin"
)

// User account statuses
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// Location is a user's address
type Location struct {
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

// BusinessInfo describes an entrepreneur's business
type BusinessInfo struct {
	BusinessName    string   `bson:"business_name" json:"business_name"`
	BusinessType    string   `bson:"business_type" json:"business_type"` // handicrafts, textiles, agro-products, local-foods, other
	GSTNumber       string   `bson:"gst_number,omitempty" json:"gst_number,omitempty"`
	YearsInBusiness int      `bson:"years_in_business,omitempty" json:"years_in_business,omitempty"`
	Description     string   `bson:"description,omitempty" json:"description,omitempty"`
	Specialties     []string `bson:"specialties,omitempty" json:"specialties,omitempty"`
}

// User represents a user in the system
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Password          string             `bson:"password,omitempty" json:"-"`
	Location          Location           `bson:"location,omitempty" json:"location,omitempty"`
	Role              string             `bson:"role" json:"role"` // buyer, entrepreneur or admin
	Status            string             `bson:"status" json:"status"`
	BusinessInfo      *BusinessInfo      `bson:"business_info,omitempty" json:"business_info,omitempty"`
	IsVerified        bool               `bson:"is_verified" json:"is_verified"`
	VerificationToken string             `bson:"verification_token" json:"-"`
}
