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
)

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
			mongoURI = "mongodb://mongodb:27017/?replicaSet=rs0"
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

	return client
}

// DBName returns the configured database name
func DBName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "commission_tracker"
	}
	return dbName
}

// GetDatabase returns the application database handle
func GetDatabase(client *mongo.Client) *mongo.Database {
	return client.Database(DBName())
}

// setupCollections ensures all necessary collections and indexes exist.
// The unique indexes back the duplicate-email/phone errors and the
// one-commission-per-client-per-month guarantee.
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := GetDatabase(client)

	// Transactions require pre-existing collections.
	for _, collName := range []string{"agencies", "users", "referredClients", "commissions"} {
		db.CreateCollection(ctx, collName)
	}

	createIndex(ctx, db.Collection("agencies"), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	createIndex(ctx, db.Collection("agencies"), mongo.IndexModel{
		Keys: bson.D{{Key: "parentAgencyId", Value: 1}},
	})

	createIndex(ctx, db.Collection("users"), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	createIndex(ctx, db.Collection("users"), mongo.IndexModel{
		Keys: bson.D{{Key: "agencyId", Value: 1}},
	})

	clients := db.Collection("referredClients")
	createIndex(ctx, clients, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	createIndex(ctx, clients, mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	createIndex(ctx, clients, mongo.IndexModel{
		Keys: bson.D{{Key: "agencyId", Value: 1}},
	})
	createIndex(ctx, clients, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	})

	commissions := db.Collection("commissions")
	createIndex(ctx, commissions, mongo.IndexModel{
		Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "month", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	createIndex(ctx, commissions, mongo.IndexModel{
		Keys: bson.D{{Key: "agencyId", Value: 1}},
	})
	createIndex(ctx, commissions, mongo.IndexModel{
		Keys: bson.D{{Key: "paymentStatus", Value: 1}},
	})

	log.Println("Database collections and indexes setup complete")
}

func createIndex(ctx context.Context, coll *mongo.Collection, model mongo.IndexModel) {
	if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
		log.Printf("Error creating index on %s: %v", coll.Name(), err)
	}
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
