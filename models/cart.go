// models/cart.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a product/quantity pair embedded in a cart.
type CartItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
}

// Cart holds a user's open cart. One cart per user.
type Cart struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Items     []CartItem         `json:"items" bson:"items"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CartItemDetail is a cart line joined with its product for responses.
type CartItemDetail struct {
	Product   ProductWithCategory `json:"product"`
	Quantity  int                 `json:"quantity"`
	LineTotal float64             `json:"lineTotal"`
}

// CartSummary totals a list of cart lines.
type CartSummary struct {
	Items      []CartItemDetail `json:"items"`
	TotalItems int              `json:"total_items"`
	TotalValue float64          `json:"total_value"`
}

// Summarize joins quantities with resolved products and computes totals.
// Cart lines whose product no longer exists are skipped.
func Summarize(items []CartItem, products map[primitive.ObjectID]ProductWithCategory) CartSummary {
	summary := CartSummary{Items: []CartItemDetail{}}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		line := CartItemDetail{
			Product:   product,
			Quantity:  item.Quantity,
			LineTotal: float64(item.Quantity) * product.Price,
		}
		summary.Items = append(summary.Items, line)
		summary.TotalItems += item.Quantity
		summary.TotalValue += line.LineTotal
	}
	return summary
}

type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}
