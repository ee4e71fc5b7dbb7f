// controllers/cart_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/utils"
)

// CartController handles the authenticated user's shopping cart
type CartController struct {
	DB *mongo.Client
}

// NewCartController creates a new cart controller
func NewCartController(db *mongo.Client) *CartController {
	return &CartController{DB: db}
}

// loadCart fetches the caller's cart, returning an empty cart when none
// exists yet.
func (cc *CartController) loadCart(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	var cart models.Cart
	err := config.GetCollection(cc.DB, "carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	return cart, err
}

// resolveProducts loads the products referenced by cart lines, joined with
// their categories.
func (cc *CartController) resolveProducts(ctx context.Context, items []models.CartItem) (map[primitive.ObjectID]models.ProductWithCategory, error) {
	products := map[primitive.ObjectID]models.ProductWithCategory{}
	if len(items) == 0 {
		return products, nil
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$in": ids}}}},
	}
	pipeline = append(pipeline, categoryLookupStages()...)

	cursor, err := config.GetCollection(cc.DB, "products").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var resolved []models.ProductWithCategory
	if err := cursor.All(ctx, &resolved); err != nil {
		return nil, err
	}
	for _, p := range resolved {
		products[p.ID] = p
	}
	return products, nil
}

func (cc *CartController) cartSummary(ctx context.Context, cart models.Cart) (models.CartSummary, error) {
	products, err := cc.resolveProducts(ctx, cart.Items)
	if err != nil {
		return models.CartSummary{}, err
	}
	return models.Summarize(cart.Items, products), nil
}

// GetCart returns the cart with resolved products and totals.
func (cc *CartController) GetCart(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		log.Printf("Failed to load cart for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve cart",
		})
	}

	summary, err := cc.cartSummary(ctx, cart)
	if err != nil {
		log.Printf("Failed to summarize cart for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve cart",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Cart retrieved successfully",
		Data:    summary,
	})
}

// AddItem adds a product to the cart or bumps its quantity if the line
// already exists.
func (cc *CartController) AddItem(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	var req models.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Product ID and a quantity between 1 and 99 are required",
		})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid product ID format",
		})
	}

	var product models.Product
	err = config.GetCollection(cc.DB, "products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Product not found",
		})
	}

	cartsColl := config.GetCollection(cc.DB, "carts")
	now := time.Now()

	// Bump the existing line first; fall back to pushing a new one.
	result, err := cartsColl.UpdateOne(ctx,
		bson.M{"userId": userID, "items.productId": productID},
		bson.M{
			"$inc": bson.M{"items.$.quantity": req.Quantity},
			"$set": bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		log.Printf("Failed to update cart for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to add item to cart",
		})
	}
	if result.MatchedCount == 0 {
		opts := options.Update().SetUpsert(true)
		_, err = cartsColl.UpdateOne(ctx,
			bson.M{"userId": userID},
			bson.M{
				"$push":        bson.M{"items": models.CartItem{ProductID: productID, Quantity: req.Quantity, AddedAt: now}},
				"$set":         bson.M{"updatedAt": now},
				"$setOnInsert": bson.M{"createdAt": now},
			},
			opts,
		)
		if err != nil {
			log.Printf("Failed to push cart item for %s: %v", userID.Hex(), err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to add item to cart",
			})
		}
	}

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reload cart",
		})
	}
	summary, err := cc.cartSummary(ctx, cart)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reload cart",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Item added to cart",
		Data:    summary,
	})
}

// UpdateItem sets a line's quantity. Quantity zero removes the line.
func (cc *CartController) UpdateItem(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid product ID format",
		})
	}

	var req models.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Quantity must be between 0 and 99",
		})
	}

	cartsColl := config.GetCollection(cc.DB, "carts")
	now := time.Now()

	if req.Quantity == 0 {
		_, err = cartsColl.UpdateOne(ctx,
			bson.M{"userId": userID},
			bson.M{
				"$pull": bson.M{"items": bson.M{"productId": productID}},
				"$set":  bson.M{"updatedAt": now},
			},
		)
	} else {
		var result *mongo.UpdateResult
		result, err = cartsColl.UpdateOne(ctx,
			bson.M{"userId": userID, "items.productId": productID},
			bson.M{
				"$set": bson.M{"items.$.quantity": req.Quantity, "updatedAt": now},
			},
		)
		if err == nil && result.MatchedCount == 0 {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Item not found in cart",
			})
		}
	}
	if err != nil {
		log.Printf("Failed to update cart item for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update cart",
		})
	}

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reload cart",
		})
	}
	summary, err := cc.cartSummary(ctx, cart)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reload cart",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Cart updated successfully",
		Data:    summary,
	})
}

// RemoveItem deletes a line from the cart.
func (cc *CartController) RemoveItem(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid product ID format",
		})
	}

	_, err = config.GetCollection(cc.DB, "carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		log.Printf("Failed to remove cart item for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to remove item from cart",
		})
	}

	cart, err := cc.loadCart(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reload cart",
		})
	}
	summary, err := cc.cartSummary(ctx, cart)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reload cart",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Item removed from cart",
		Data:    summary,
	})
}

// ClearCart empties the cart.
func (cc *CartController) ClearCart(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	_, err = config.GetCollection(cc.DB, "carts").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()},
		},
	)
	if err != nil {
		log.Printf("Failed to clear cart for %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to clear cart",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Cart cleared successfully",
		Data:    models.CartSummary{Items: []models.CartItemDetail{}},
	})
}
