// repositories/commission_repository.go
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/refchain/commission_backend/models"
)

// CommissionFilter narrows a scoped commission listing.
type CommissionFilter struct {
	PaymentStatus string
	Month         string
}

type CommissionRepository struct {
	commissions *mongo.Collection
	clients     *mongo.Collection
	agencies    *mongo.Collection
}

func NewCommissionRepository(db *mongo.Database) *CommissionRepository {
	return &CommissionRepository{
		commissions: db.Collection("commissions"),
		clients:     db.Collection("referredClients"),
		agencies:    db.Collection("agencies"),
	}
}

func commissionQuery(scope models.AgencyScope, filter CommissionFilter) bson.M {
	query := scopeFilter(scope)
	if filter.PaymentStatus != "" {
		query["paymentStatus"] = filter.PaymentStatus
	}
	if filter.Month != "" {
		query["month"] = filter.Month
	}
	return query
}

// List returns the commissions visible inside scope, newest first.
func (r *CommissionRepository) List(ctx context.Context, scope models.AgencyScope, filter CommissionFilter) ([]models.Commission, error) {
	cursor, err := r.commissions.Find(ctx, commissionQuery(scope, filter),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	commissions := []models.Commission{}
	if err := cursor.All(ctx, &commissions); err != nil {
		return nil, err
	}
	return r.attachNames(ctx, commissions)
}

func (r *CommissionRepository) attachNames(ctx context.Context, commissions []models.Commission) ([]models.Commission, error) {
	if len(commissions) == 0 {
		return commissions, nil
	}

	clientIDs := make([]primitive.ObjectID, 0, len(commissions))
	agencyIDs := make([]primitive.ObjectID, 0, len(commissions))
	for _, c := range commissions {
		clientIDs = append(clientIDs, c.ClientID)
		agencyIDs = append(agencyIDs, c.AgencyID)
	}

	clientNames, err := nameIndex(ctx, r.clients, clientIDs)
	if err != nil {
		return nil, err
	}
	agencyNames, err := nameIndex(ctx, r.agencies, agencyIDs)
	if err != nil {
		return nil, err
	}

	for i := range commissions {
		commissions[i].ClientName = clientNames[commissions[i].ClientID]
		commissions[i].AgencyName = agencyNames[commissions[i].AgencyID]
	}
	return commissions, nil
}

func nameIndex(ctx context.Context, coll *mongo.Collection, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
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
	return names, cursor.Err()
}

// GroupByMonth buckets the scoped listing by month and payment status,
// newest month first.
func (r *CommissionRepository) GroupByMonth(ctx context.Context, scope models.AgencyScope, filter CommissionFilter) ([]models.MonthlyCommissionGroup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: commissionQuery(scope, filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":         bson.M{"month": "$month", "paymentStatus": "$paymentStatus"},
			"count":       bson.M{"$sum": 1},
			"totalAmount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":           0,
			"month":         "$_id.month",
			"paymentStatus": "$_id.paymentStatus",
			"count":         1,
			"totalAmount":   1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "month", Value: -1}, {Key: "paymentStatus", Value: 1}}}},
	}

	cursor, err := r.commissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := []models.MonthlyCommissionGroup{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Stats aggregates totals for the actor's scope.
func (r *CommissionRepository) Stats(ctx context.Context, scope models.AgencyScope) (*models.CommissionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scopeFilter(scope)}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"totalCommissions": bson.M{"$sum": 1},
			"totalAmount":      bson.M{"$sum": "$amount"},
			"pendingAmount": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$paymentStatus", models.CommissionPending}}, "$amount", 0,
			}}},
			"paidAmount": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$paymentStatus", models.CommissionPaid}}, "$amount", 0,
			}}},
			"pendingCount": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$paymentStatus", models.CommissionPending}}, 1, 0,
			}}},
			"paidCount": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$paymentStatus", models.CommissionPaid}}, 1, 0,
			}}},
		}}},
	}

	cursor, err := r.commissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := &models.CommissionStats{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(stats); err != nil {
			return nil, err
		}
	}
	return stats, cursor.Err()
}

// FindByID returns the commission or models.ErrNotFound.
func (r *CommissionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	var commission models.Commission
	err := r.commissions.FindOne(ctx, bson.M{"_id": id}).Decode(&commission)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// Insert stores a new commission record. The unique (clientId, month) index
// is the last line of defense against double billing; a collision surfaces
// as models.ErrConcurrentModification because it can only happen when two
// transitions race.
func (r *CommissionRepository) Insert(ctx context.Context, commission *models.Commission) error {
	now := time.Now()
	commission.CreatedAt = now
	commission.UpdatedAt = now
	commission.ClientName = ""
	commission.AgencyName = ""

	result, err := r.commissions.InsertOne(ctx, commission)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConcurrentModification
	}
	if err != nil {
		return err
	}
	commission.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// MarkPaid flips a pending commission to paid, stamping paidAt and the
// notes. Paying an already-paid commission is an idempotent no-op: the
// stored record comes back unchanged and changed is false.
func (r *CommissionRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, notes string) (*models.Commission, bool, error) {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.CommissionPaid,
		"paidAt":        now,
		"paymentNotes":  notes,
		"updatedAt":     now,
	}}

	result := r.commissions.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "paymentStatus": models.CommissionPending}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	var commission models.Commission
	err := result.Decode(&commission)
	if err == mongo.ErrNoDocuments {
		// Already paid, or genuinely absent.
		existing, findErr := r.FindByID(ctx, id)
		return existing, false, findErr
	}
	if err != nil {
		return nil, false, err
	}
	return &commission, true, nil
}

// RemoveByClient cascades a client deletion to its commissions.
func (r *CommissionRepository) RemoveByClient(ctx context.Context, clientID primitive.ObjectID) error {
	_, err := r.commissions.DeleteMany(ctx, bson.M{"clientId": clientID})
	return err
}

// RemoveByAgency cascades an agency deletion to its commissions.
func (r *CommissionRepository) RemoveByAgency(ctx context.Context, agencyID primitive.ObjectID) error {
	_, err := r.commissions.DeleteMany(ctx, bson.M{"agencyId": agencyID})
	return err
}
