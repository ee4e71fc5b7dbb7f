// controllers/order_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/services"
	"github.com/dkamau/unimart_backend/utils"
)

// OrderController handles checkout and payment for the authenticated user
type OrderController struct {
	DB      *mongo.Client
	Pesapal *services.PesapalService
}

// NewOrderController creates a new order controller
func NewOrderController(db *mongo.Client, pesapal *services.PesapalService) *OrderController {
	return &OrderController{DB: db, Pesapal: pesapal}
}

// CreateOrder builds an order from the caller's cart, attributes it to an
// agent when a valid referral code is supplied, decrements stock and empties
// the cart. An unknown or inactive agent code does not fail the order; the
// attribution is simply dropped.
func (oc *OrderController) CreateOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Full name and a valid email are required",
		})
	}
	if req.Phone != "" && !utils.ValidPhoneNumber(req.Phone) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number format",
		})
	}

	var cart models.Cart
	err = config.GetCollection(oc.DB, "carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err != nil || len(cart.Items) == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Your cart is empty",
		})
	}

	productIDs := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	cursor, err := config.GetCollection(oc.DB, "products").Find(ctx, bson.M{"_id": bson.M{"$in": productIDs}})
	if err != nil {
		log.Printf("Failed to load cart products for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create order",
		})
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create order",
		})
	}
	productsByID := map[primitive.ObjectID]models.Product{}
	for _, p := range products {
		productsByID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	var totalAmount float64
	for _, line := range cart.Items {
		product, ok := productsByID[line.ProductID]
		if !ok {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A product in your cart is no longer available",
			})
		}
		if product.Stock < line.Quantity {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Insufficient stock for " + product.Title,
			})
		}
		lineTotal := float64(line.Quantity) * product.Price
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Title,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  lineTotal,
		})
		totalAmount += lineTotal
	}

	var agentID *primitive.ObjectID
	if req.AgentCode != "" {
		var agent models.Agent
		code := strings.ToUpper(strings.TrimSpace(req.AgentCode))
		err := config.GetCollection(oc.DB, "agents").FindOne(ctx, bson.M{"agentCode": code, "isActive": true}).Decode(&agent)
		if err == nil {
			agentID = &agent.ID
		} else if err != mongo.ErrNoDocuments {
			log.Printf("Failed to resolve agent code %s: %v", code, err)
		}
	}

	now := time.Now()
	order := models.Order{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		AgentID:        agentID,
		OrderReference: utils.GenerateOrderReference(),
		FullName:       utils.SanitizeInput(req.FullName),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          req.Phone,
		Company:        utils.SanitizeInput(req.Company),
		Notes:          utils.SanitizeInput(req.Notes),
		Items:          items,
		TotalAmount:    totalAmount,
		Currency:       "KES",
		Status:         models.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	session, err := oc.DB.StartSession()
	if err != nil {
		log.Printf("Failed to start session: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create order",
		})
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := config.GetCollection(oc.DB, "orders").InsertOne(sc, order); err != nil {
			return nil, err
		}

		// Stock checks hold inside the transaction: the filter makes a
		// concurrent oversell abort instead of going negative.
		productsColl := config.GetCollection(oc.DB, "products")
		for _, item := range order.Items {
			result, err := productsColl.UpdateOne(sc,
				bson.M{"_id": item.ProductID, "stock": bson.M{"$gte": item.Quantity}},
				bson.M{"$inc": bson.M{"stock": -item.Quantity}, "$set": bson.M{"updatedAt": now}},
			)
			if err != nil {
				return nil, err
			}
			if result.MatchedCount == 0 {
				return nil, mongo.ErrNoDocuments
			}
		}

		_, err := config.GetCollection(oc.DB, "carts").UpdateOne(sc,
			bson.M{"userId": userID},
			bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": now}},
		)
		return nil, err
	})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Insufficient stock for an item in your cart",
			})
		}
		log.Printf("Order transaction failed for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create order",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order created successfully",
		Data:    order,
	})
}

// GetOrder returns one of the caller's orders.
func (oc *OrderController) GetOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID format",
		})
	}

	var order models.Order
	err = config.GetCollection(oc.DB, "orders").FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Order not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve order",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order retrieved successfully",
		Data:    order,
	})
}

// InitiatePayment submits a pending order to Pesapal and returns the hosted
// payment redirect URL.
func (oc *OrderController) InitiatePayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID format",
		})
	}

	ordersColl := config.GetCollection(oc.DB, "orders")

	var order models.Order
	err = ordersColl.FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Order not found",
		})
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusFailed {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Order is not awaiting payment",
		})
	}

	resp, err := oc.Pesapal.SubmitOrder(&order)
	if err != nil {
		log.Printf("Pesapal submission failed for order %s: %v", order.OrderReference, err)
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to initiate payment. Please try again.",
		})
	}

	_, err = ordersColl.UpdateOne(ctx, bson.M{"_id": order.ID},
		bson.M{"$set": bson.M{"paymentReference": resp.OrderTrackingID, "updatedAt": time.Now()}})
	if err != nil {
		log.Printf("Failed to save tracking ID for order %s: %v", order.OrderReference, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment initiated successfully",
		Data: map[string]interface{}{
			"order_tracking_id": resp.OrderTrackingID,
			"redirect_url":      resp.RedirectURL,
		},
	})
}

// PaymentCallback is hit by Pesapal (IPN and browser callback) once a
// payment settles. The gateway is the source of truth: the handler queries
// the transaction status instead of trusting query parameters.
func (oc *OrderController) PaymentCallback(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trackingID := c.QueryParam("OrderTrackingId")
	if trackingID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "OrderTrackingId is required",
		})
	}

	status, err := oc.Pesapal.GetTransactionStatus(trackingID)
	if err != nil {
		log.Printf("Failed to fetch transaction status for %s: %v", trackingID, err)
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to verify payment status",
		})
	}

	newStatus := services.OrderStatusFromGateway(status.PaymentStatusDescription)

	ordersColl := config.GetCollection(oc.DB, "orders")

	var order models.Order
	err = ordersColl.FindOne(ctx, bson.M{"paymentReference": trackingID}).Decode(&order)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Order not found for this payment",
		})
	}

	update := bson.M{"status": newStatus, "updatedAt": time.Now()}
	if newStatus == models.OrderStatusPaid && order.PaidAt == nil {
		now := time.Now()
		update["paidAt"] = now
	}

	// Only move forward from pending or failed; a replayed IPN must not
	// downgrade a paid order.
	_, err = ordersColl.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": bson.M{"$in": []string{models.OrderStatusPending, models.OrderStatusFailed}}},
		bson.M{"$set": update},
	)
	if err != nil {
		log.Printf("Failed to update order %s from callback: %v", order.OrderReference, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update order",
		})
	}

	// Paid referral orders change the agent's live totals.
	if newStatus == models.OrderStatusPaid && order.AgentID != nil {
		if rdb := config.GetRedisClient(); rdb != nil {
			if err := rdb.Del(ctx, "agent:dashboard:"+order.AgentID.Hex()).Err(); err != nil {
				log.Printf("Failed to invalidate dashboard cache for agent %s: %v", order.AgentID.Hex(), err)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment status updated",
		Data: map[string]interface{}{
			"order_reference": order.OrderReference,
			"status":          newStatus,
		},
	})
}

// RegisterPaymentIPN registers the callback URL with Pesapal. Admin only;
// run once per environment, then set PESAPAL_NOTIFICATION_ID from the
// returned ipn_id.
func (oc *OrderController) RegisterPaymentIPN(c echo.Context) error {
	var req struct {
		URL string `json:"url" validate:"required,url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A valid URL is required",
		})
	}

	resp, err := oc.Pesapal.RegisterIPN(req.URL)
	if err != nil {
		log.Printf("Failed to register IPN: %v", err)
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to register IPN with Pesapal",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "IPN registered successfully",
		Data:    resp,
	})
}
