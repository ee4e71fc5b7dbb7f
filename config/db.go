// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkamau/unimart_backend/models"
)

// DBName returns the configured database name.
func DBName() string {
	if name := os.Getenv("DB_NAME"); name != "" {
		return name
	}
	return "unimart"
}

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use the Docker service name as fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://mongodb:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)
	seedAgentTiers(client)

	return client
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DBName()).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DBName())

	collections := []string{
		"users", "agent_applications", "agents", "agent_tiers",
		"commissions", "orders", "products", "categories", "carts",
		"notifications",
	}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	// Email index for users collection
	userColl := db.Collection("users")
	emailIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := userColl.Indexes().CreateOne(ctx, emailIndexModel); err != nil {
		log.Printf("Error creating email index: %v", err)
	}

	// One agent per user and per application. The applicationId index is
	// what guarantees at most one agent survives two racing approvals.
	agentColl := db.Collection("agents")
	for _, key := range []string{"userId", "applicationId", "agentCode"} {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := agentColl.Indexes().CreateOne(ctx, model); err != nil {
			log.Printf("Error creating agents %s index: %v", key, err)
		}
	}

	// Application lookups by applicant and by status
	appColl := db.Collection("agent_applications")
	appIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := appColl.Indexes().CreateMany(ctx, appIndexes); err != nil {
		log.Printf("Error creating agent_applications indexes: %v", err)
	}

	// Order lookups by agent for sales/commission aggregation
	orderColl := db.Collection("orders")
	orderIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "agentId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "orderReference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := orderColl.Indexes().CreateMany(ctx, orderIndexes); err != nil {
		log.Printf("Error creating orders indexes: %v", err)
	}

	// One cart per user, unique category slugs
	cartIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("carts").Indexes().CreateOne(ctx, cartIndex); err != nil {
		log.Printf("Error creating carts index: %v", err)
	}
	slugIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("categories").Indexes().CreateOne(ctx, slugIndex); err != nil {
		log.Printf("Error creating categories slug index: %v", err)
	}

	// One snapshot per agent per period; snapshot reruns replace in place
	snapshotIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "agentId", Value: 1},
			{Key: "periodStart", Value: 1},
			{Key: "periodEnd", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("commissions").Indexes().CreateOne(ctx, snapshotIndex); err != nil {
		log.Printf("Error creating commissions index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// seedAgentTiers inserts the reference tier bands on first boot. Existing
// tiers are left untouched.
func seedAgentTiers(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	coll := client.Database(DBName()).Collection("agent_tiers")

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Printf("Error counting agent tiers: %v", err)
		return
	}
	if count > 0 {
		return
	}

	now := time.Now()
	var docs []interface{}
	for _, tier := range models.SeedTiers() {
		tier.CreatedAt = now
		tier.UpdatedAt = now
		docs = append(docs, tier)
	}

	if _, err := coll.InsertMany(ctx, docs); err != nil {
		log.Printf("Error seeding agent tiers: %v", err)
		return
	}
	log.Println("Seeded agent tiers")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
