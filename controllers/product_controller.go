// controllers/product_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/utils"
)

// Product images are resized down to this width on upload.
const productImageMaxWidth = 1200

// ProductController handles the public catalog and admin product management
type ProductController struct {
	DB *mongo.Client
}

// NewProductController creates a new product controller
func NewProductController(db *mongo.Client) *ProductController {
	return &ProductController{DB: db}
}

// categoryLookupStages joins each product with its category document.
func categoryLookupStages() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "categories",
			"localField":   "categoryId",
			"foreignField": "_id",
			"as":           "category",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$category", "preserveNullAndEmptyArrays": true}}},
	}
}

// ListProducts returns the catalog with search, category, price filtering,
// sorting and pagination.
func (pc *ProductController) ListProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if search := c.QueryParam("search"); search != "" {
		pattern := utils.SearchPattern(search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if category := c.QueryParam("category"); category != "" {
		var cat models.Category
		err := config.GetCollection(pc.DB, "categories").FindOne(ctx, bson.M{"slug": category}).Decode(&cat)
		if err != nil {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Products retrieved successfully",
				Data: map[string]interface{}{
					"products": []models.ProductWithCategory{},
					"pagination": map[string]interface{}{
						"page": 1, "limit": 12, "total": 0, "totalPages": 0,
					},
				},
			})
		}
		filter["categoryId"] = cat.ID
	}

	priceFilter := bson.M{}
	if min := c.QueryParam("min_price"); min != "" {
		if v, err := strconv.ParseFloat(min, 64); err == nil {
			priceFilter["$gte"] = v
		}
	}
	if max := c.QueryParam("max_price"); max != "" {
		if v, err := strconv.ParseFloat(max, 64); err == nil {
			priceFilter["$lte"] = v
		}
	}
	if len(priceFilter) > 0 {
		filter["price"] = priceFilter
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	switch c.QueryParam("sort") {
	case "price_asc":
		sort = bson.D{{Key: "price", Value: 1}}
	case "price_desc":
		sort = bson.D{{Key: "price", Value: -1}}
	case "rating":
		sort = bson.D{{Key: "rating", Value: -1}}
	case "newest":
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 12
	}

	collection := config.GetCollection(pc.DB, "products")

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("Failed to count products: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve products",
		})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$skip", Value: int64((page - 1) * limit)}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	pipeline = append(pipeline, categoryLookupStages()...)

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("Failed to aggregate products: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve products",
		})
	}
	defer cursor.Close(ctx)

	products := []models.ProductWithCategory{}
	if err := cursor.All(ctx, &products); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode products",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Products retrieved successfully",
		Data: map[string]interface{}{
			"products": products,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

// GetFeaturedProducts returns the highest rated products for the home page.
func (pc *ProductController) GetFeaturedProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "rating", Value: -1}, {Key: "ratingCount", Value: -1}}}},
		{{Key: "$limit", Value: int64(8)}},
	}
	pipeline = append(pipeline, categoryLookupStages()...)

	cursor, err := config.GetCollection(pc.DB, "products").Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("Failed to fetch featured products: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve featured products",
		})
	}
	defer cursor.Close(ctx)

	products := []models.ProductWithCategory{}
	if err := cursor.All(ctx, &products); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode products",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Featured products retrieved successfully",
		Data:    products,
	})
}

// GetProduct returns a single product with its category.
func (pc *ProductController) GetProduct(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid product ID format",
		})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": productID}}},
	}
	pipeline = append(pipeline, categoryLookupStages()...)

	cursor, err := config.GetCollection(pc.DB, "products").Aggregate(ctx, pipeline)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve product",
		})
	}
	defer cursor.Close(ctx)

	var products []models.ProductWithCategory
	if err := cursor.All(ctx, &products); err != nil || len(products) == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Product not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Product retrieved successfully",
		Data:    products[0],
	})
}

func (pc *ProductController) bindProductForm(c echo.Context) (*models.ProductRequest, error) {
	var req models.ProductRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// CreateProduct adds a product to the catalog. Admin only.
func (pc *ProductController) CreateProduct(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := pc.bindProductForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Title, a positive price and a category are required",
		})
	}

	categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid category ID format",
		})
	}

	count, err := config.GetCollection(pc.DB, "categories").CountDocuments(ctx, bson.M{"_id": categoryID})
	if err != nil || count == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Category not found",
		})
	}

	var imagePath string
	if file, err := c.FormFile("image"); err == nil {
		imagePath, err = utils.StoreImageResized(file, utils.ProductImageDir, productImageMaxWidth)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
	}

	now := time.Now()
	product := models.Product{
		ID:          primitive.NewObjectID(),
		Title:       utils.SanitizeInput(req.Title),
		Description: utils.SanitizeInput(req.Description),
		Price:       req.Price,
		CategoryID:  categoryID,
		Image:       imagePath,
		Stock:       req.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := config.GetCollection(pc.DB, "products").InsertOne(ctx, product); err != nil {
		utils.DeleteUpload(imagePath)
		log.Printf("Failed to insert product: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create product",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Product created successfully",
		Data:    product,
	})
}

// UpdateProduct updates a product. A new image replaces and deletes the old
// file. Admin only.
func (pc *ProductController) UpdateProduct(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid product ID format",
		})
	}

	collection := config.GetCollection(pc.DB, "products")

	var existing models.Product
	if err := collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&existing); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Product not found",
		})
	}

	req, err := pc.bindProductForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Title, a positive price and a category are required",
		})
	}

	categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid category ID format",
		})
	}

	update := bson.M{
		"title":       utils.SanitizeInput(req.Title),
		"description": utils.SanitizeInput(req.Description),
		"price":       req.Price,
		"categoryId":  categoryID,
		"stock":       req.Stock,
		"updatedAt":   time.Now(),
	}

	var oldImage string
	if file, err := c.FormFile("image"); err == nil {
		imagePath, err := utils.StoreImageResized(file, utils.ProductImageDir, productImageMaxWidth)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		update["image"] = imagePath
		oldImage = existing.Image
	}

	if _, err := collection.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{"$set": update}); err != nil {
		log.Printf("Failed to update product %s: %v", productID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update product",
		})
	}

	if oldImage != "" {
		if err := utils.DeleteUpload(oldImage); err != nil {
			log.Printf("Failed to delete replaced product image %s: %v", oldImage, err)
		}
	}

	var product models.Product
	if err := collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reload product",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DeleteProduct removes a product and its image file. Admin only.
func (pc *ProductController) DeleteProduct(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid product ID format",
		})
	}

	collection := config.GetCollection(pc.DB, "products")

	var product models.Product
	if err := collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Product not found",
		})
	}

	if _, err := collection.DeleteOne(ctx, bson.M{"_id": productID}); err != nil {
		log.Printf("Failed to delete product %s: %v", productID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete product",
		})
	}

	if err := utils.DeleteUpload(product.Image); err != nil {
		log.Printf("Failed to delete product image %s: %v", product.Image, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Product deleted successfully",
	})
}
