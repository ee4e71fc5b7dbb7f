// models/product.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64            `json:"price" bson:"price"`
	CategoryID  primitive.ObjectID `json:"categoryId" bson:"categoryId"`
	Image       string             `json:"image,omitempty" bson:"image,omitempty"`
	Rating      float64            `json:"rating" bson:"rating"`
	RatingCount int                `json:"ratingCount" bson:"ratingCount"`
	Stock       int                `json:"stock" bson:"stock"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductWithCategory joins the product with its category for listings.
type ProductWithCategory struct {
	Product  `bson:",inline"`
	Category *Category `json:"category,omitempty" bson:"category,omitempty"`
}

// ProductRequest is the admin create/update form. The image arrives as a
// separate multipart file.
type ProductRequest struct {
	Title       string  `form:"title" validate:"required,max=255"`
	Description string  `form:"description" validate:"omitempty,max=5000"`
	Price       float64 `form:"price" validate:"required,gt=0"`
	CategoryID  string  `form:"categoryId" validate:"required"`
	Stock       int     `form:"stock" validate:"gte=0"`
}
