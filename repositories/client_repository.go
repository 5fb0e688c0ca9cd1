// repositories/client_repository.go
package repositories

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/refchain/commission_backend/models"
)

// ClientFilter narrows a scoped client listing.
type ClientFilter struct {
	Status string
	Search string
}

type ClientRepository struct {
	clients  *mongo.Collection
	agencies *mongo.Collection
}

func NewClientRepository(db *mongo.Database) *ClientRepository {
	return &ClientRepository{
		clients:  db.Collection("referredClients"),
		agencies: db.Collection("agencies"),
	}
}

// scopeFilter builds the implicit agencyId predicate. The admin sentinel
// adds no predicate at all so the full set is never materialized.
func scopeFilter(scope models.AgencyScope) bson.M {
	if scope.All {
		return bson.M{}
	}
	return bson.M{"agencyId": bson.M{"$in": scope.IDs}}
}

// List returns the clients visible inside scope, newest first. Unauthorized
// rows are filtered at the query boundary, never materialized.
func (r *ClientRepository) List(ctx context.Context, scope models.AgencyScope, filter ClientFilter) ([]models.ReferredClient, error) {
	query := scopeFilter(scope)
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"phone": pattern},
		}
	}

	cursor, err := r.clients.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	clients := []models.ReferredClient{}
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return r.attachAgencyNames(ctx, clients)
}

func (r *ClientRepository) attachAgencyNames(ctx context.Context, clients []models.ReferredClient) ([]models.ReferredClient, error) {
	if len(clients) == 0 {
		return clients, nil
	}
	ids := make([]primitive.ObjectID, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.AgencyID)
	}

	cursor, err := r.agencies.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	names := map[primitive.ObjectID]string{}
	for cursor.Next(ctx) {
		var doc struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		names[doc.ID] = doc.Name
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	for i := range clients {
		clients[i].AgencyName = names[clients[i].AgencyID]
	}
	return clients, nil
}

// FindByID returns the client or models.ErrNotFound. Callers check the
// owning agency against the actor's scope after the fetch.
func (r *ClientRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.ReferredClient, error) {
	var client models.ReferredClient
	err := r.clients.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// Insert registers a new client in the pending state. Email and phone each
// carry a unique index; a collision surfaces as models.ErrDuplicateClient.
func (r *ClientRepository) Insert(ctx context.Context, client *models.ReferredClient) error {
	now := time.Now()
	client.Status = models.ClientStatusPending
	client.CreatedAt = now
	client.UpdatedAt = now
	client.AgencyName = ""

	result, err := r.clients.InsertOne(ctx, client)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateClient
	}
	if err != nil {
		return err
	}
	client.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// Update rewrites contact fields and notes. Status and owning agency are
// immutable here; status changes go through the enrollment service.
func (r *ClientRepository) Update(ctx context.Context, id primitive.ObjectID, req models.UpdateClientRequest) (*models.ReferredClient, error) {
	update := bson.M{"$set": bson.M{
		"name":      req.Name,
		"email":     req.Email,
		"phone":     req.Phone,
		"notes":     req.Notes,
		"updatedAt": time.Now(),
	}}

	result := r.clients.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	var client models.ReferredClient
	err := result.Decode(&client)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, models.ErrDuplicateClient
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// CompareAndSetStatus updates the client's status only if its current status
// still equals expected. Returns the updated client, or
// models.ErrConcurrentModification when the guard fails while the client
// still exists, or models.ErrNotFound when it does not.
func (r *ClientRepository) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, expected, next string, enrollmentDate *time.Time) (*models.ReferredClient, error) {
	update := bson.M{"$set": bson.M{
		"status":         next,
		"enrollmentDate": enrollmentDate,
		"updatedAt":      time.Now(),
	}}

	result := r.clients.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": expected}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	var client models.ReferredClient
	err := result.Decode(&client)
	if err == mongo.ErrNoDocuments {
		// Distinguish a lost race from a missing client.
		exists, countErr := r.clients.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, countErr
		}
		if exists > 0 {
			return nil, models.ErrConcurrentModification
		}
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// Remove deletes the client document. Commission cascade happens in the
// same transaction, driven by the caller.
func (r *ClientRepository) Remove(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.clients.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RemoveByAgency deletes every client owned by the agency. Used by the
// agency cascade delete.
func (r *ClientRepository) RemoveByAgency(ctx context.Context, agencyID primitive.ObjectID) error {
	_, err := r.clients.DeleteMany(ctx, bson.M{"agencyId": agencyID})
	return err
}

// CountByStatus tallies clients per lifecycle state inside scope.
func (r *ClientRepository) CountByStatus(ctx context.Context, scope models.AgencyScope) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scopeFilter(scope)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.clients.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := map[string]int64{}
	for cursor.Next(ctx) {
		var doc struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		counts[doc.Status] = doc.Count
	}
	return counts, cursor.Err()
}

// Recent returns the latest registrations across all agencies, newest first.
func (r *ClientRepository) Recent(ctx context.Context, limit int64) ([]models.ReferredClient, error) {
	cursor, err := r.clients.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	clients := []models.ReferredClient{}
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return r.attachAgencyNames(ctx, clients)
}
