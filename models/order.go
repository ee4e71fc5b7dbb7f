// models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. Cancelled orders are excluded from every sales and
// commission aggregate.
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusRefunded   = "refunded"
)

// OrderItem is a purchased line embedded in its order.
type OrderItem struct {
	ProductID   primitive.ObjectID `json:"productId" bson:"productId"`
	ProductName string             `json:"productName" bson:"productName"`
	Quantity    int                `json:"quantity" bson:"quantity"`
	UnitPrice   float64            `json:"unitPrice" bson:"unitPrice"`
	TotalPrice  float64            `json:"totalPrice" bson:"totalPrice"`
}

// Order model. AgentID is set when the order was placed through an agent's
// referral and drives that agent's sales totals.
type Order struct {
	ID               primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID           primitive.ObjectID  `json:"userId" bson:"userId"`
	AgentID          *primitive.ObjectID `json:"agentId,omitempty" bson:"agentId,omitempty"`
	OrderReference   string              `json:"orderReference" bson:"orderReference"`
	FullName         string              `json:"fullName" bson:"fullName"`
	Email            string              `json:"email" bson:"email"`
	Phone            string              `json:"phone,omitempty" bson:"phone,omitempty"`
	Company          string              `json:"company,omitempty" bson:"company,omitempty"`
	Notes            string              `json:"notes,omitempty" bson:"notes,omitempty"`
	Items            []OrderItem         `json:"items" bson:"items"`
	TotalAmount      float64             `json:"totalAmount" bson:"totalAmount"`
	Currency         string              `json:"currency" bson:"currency"`
	Status           string              `json:"status" bson:"status"`
	PaymentReference string              `json:"paymentReference,omitempty" bson:"paymentReference,omitempty"`
	PaidAt           *time.Time          `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CreateOrderRequest builds an order from the caller's cart.
type CreateOrderRequest struct {
	FullName  string `json:"fullName" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Notes     string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	AgentCode string `json:"agentCode,omitempty"`
}

// SalesStats are the aggregate figures on the agent sales page.
type SalesStats struct {
	TotalSales        float64 `json:"total_sales"`
	TotalOrders       int64   `json:"total_orders"`
	AverageOrderValue float64 `json:"average_order_value"`
	ThisMonthSales    float64 `json:"this_month_sales"`
}

// QuarterData is one bar of the dashboard's quarterly chart.
type QuarterData struct {
	Quarter string  `json:"quarter"`
	Sales   float64 `json:"sales"`
	Orders  int64   `json:"orders"`
}

// RecentSale is a trimmed order row on the agent dashboard.
type RecentSale struct {
	ID             primitive.ObjectID `json:"id"`
	OrderReference string             `json:"order_reference"`
	FullName       string             `json:"full_name"`
	TotalAmount    float64            `json:"total_amount"`
	Status         string             `json:"status"`
	CreatedAt      string             `json:"created_at"`
}
