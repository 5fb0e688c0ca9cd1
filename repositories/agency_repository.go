// repositories/agency_repository.go
package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/refchain/commission_backend/models"
)

// AgencyRepository is the persistent tree store. All traversal goes through
// walkSubtree/walkAncestors so membership logic lives in exactly one place.
type AgencyRepository struct {
	agencies    *mongo.Collection
	clients     *mongo.Collection
	commissions *mongo.Collection
}

func NewAgencyRepository(db *mongo.Database) *AgencyRepository {
	return &AgencyRepository{
		agencies:    db.Collection("agencies"),
		clients:     db.Collection("referredClients"),
		commissions: db.Collection("commissions"),
	}
}

// FindByID returns the agency or models.ErrNotFound.
func (r *AgencyRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Agency, error) {
	var agency models.Agency
	err := r.agencies.FindOne(ctx, bson.M{"_id": id}).Decode(&agency)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &agency, nil
}

// Exists reports whether an agency id resolves.
func (r *AgencyRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.agencies.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AgencyRepository) childrenOf(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.agencies.Find(ctx, bson.M{"parentAgencyId": id},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (r *AgencyRepository) parentOf(ctx context.Context, id primitive.ObjectID) (*primitive.ObjectID, error) {
	var doc struct {
		ParentAgencyID *primitive.ObjectID `bson:"parentAgencyId"`
	}
	err := r.agencies.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.ParentAgencyID, nil
}

// SubtreeIDs returns root plus all of its descendants, root included.
func (r *AgencyRepository) SubtreeIDs(ctx context.Context, root primitive.ObjectID) ([]primitive.ObjectID, error) {
	return walkSubtree(ctx, root, r.childrenOf)
}

// AncestorChain returns the chain from id up to its root, id first.
func (r *AgencyRepository) AncestorChain(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	return walkAncestors(ctx, id, r.parentOf)
}

// Tree returns the level-stamped flattened tree. With a nil root the whole
// forest is listed (admin view); otherwise only root's subtree, with root at
// level 0. Each node's depth comes from its ancestor chain. Rows are ordered
// by level, then name.
func (r *AgencyRepository) Tree(ctx context.Context, root *primitive.ObjectID) ([]models.AgencyNode, error) {
	filter := bson.M{}
	if root != nil {
		subtree, err := r.SubtreeIDs(ctx, *root)
		if err != nil {
			return nil, err
		}
		filter = bson.M{"_id": bson.M{"$in": subtree}}
	}

	cursor, err := r.agencies.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var nodes []models.AgencyNode
	if err := cursor.All(ctx, &nodes); err != nil {
		return nil, err
	}

	for i := range nodes {
		chain, err := r.AncestorChain(ctx, nodes[i].ID)
		if errors.Is(err, models.ErrNotFound) {
			// Unresolvable ancestry (dangling parent ref) lists as a root.
			chain = nil
		} else if err != nil {
			return nil, err
		}
		nodes[i].Level = levelFromChain(chain, root)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Level != nodes[j].Level {
			return nodes[i].Level < nodes[j].Level
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes, nil
}

// levelFromChain derives a node's depth from its ancestor chain, node first.
// Relative to the requested subtree root when one is set, absolute depth
// otherwise; a chain that never reaches the requested root falls back to the
// absolute depth.
func levelFromChain(chain []primitive.ObjectID, root *primitive.ObjectID) int {
	if root != nil {
		for i, id := range chain {
			if id == *root {
				return i
			}
		}
	}
	if len(chain) == 0 {
		return 0
	}
	return len(chain) - 1
}

// Details loads an agency together with its client and commission totals.
func (r *AgencyRepository) Details(ctx context.Context, id primitive.ObjectID) (*models.AgencyDetails, error) {
	agency, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &models.AgencyDetails{Agency: *agency}

	if details.TotalClients, err = r.clients.CountDocuments(ctx, bson.M{"agencyId": id}); err != nil {
		return nil, err
	}
	if details.EnrolledClients, err = r.clients.CountDocuments(ctx, bson.M{
		"agencyId": id, "status": models.ClientStatusEnrolled,
	}); err != nil {
		return nil, err
	}

	totals, err := r.commissionTotals(ctx, id)
	if err != nil {
		return nil, err
	}
	details.TotalCommissions = totals.total
	details.PendingCommissions = totals.pending
	return details, nil
}

type agencyCommissionTotals struct {
	total   float64
	pending float64
}

func (r *AgencyRepository) commissionTotals(ctx context.Context, id primitive.ObjectID) (agencyCommissionTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"agencyId": id}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
			"pending": bson.M{"$sum": bson.M{
				"$cond": bson.A{
					bson.M{"$eq": bson.A{"$paymentStatus", models.CommissionPending}},
					"$amount", 0,
				},
			}},
		}}},
	}

	cursor, err := r.commissions.Aggregate(ctx, pipeline)
	if err != nil {
		return agencyCommissionTotals{}, err
	}
	defer cursor.Close(ctx)

	var result struct {
		Total   float64 `bson:"total"`
		Pending float64 `bson:"pending"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return agencyCommissionTotals{}, err
		}
	}
	return agencyCommissionTotals{total: result.Total, pending: result.Pending}, cursor.Err()
}

// CountAll tallies every agency in the forest.
func (r *AgencyRepository) CountAll(ctx context.Context) (int64, error) {
	return r.agencies.CountDocuments(ctx, bson.M{})
}

// Insert stores a new agency. The caller has already resolved and validated
// the parent; a duplicate email surfaces as models.ErrDuplicateEmail.
func (r *AgencyRepository) Insert(ctx context.Context, agency *models.Agency) error {
	now := time.Now()
	agency.CreatedAt = now
	agency.UpdatedAt = now

	result, err := r.agencies.InsertOne(ctx, agency)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	agency.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// Update rewrites name, email and phone. Returns the updated agency or
// models.ErrNotFound.
func (r *AgencyRepository) Update(ctx context.Context, id primitive.ObjectID, req models.UpdateAgencyRequest) (*models.Agency, error) {
	update := bson.M{"$set": bson.M{
		"name":      req.Name,
		"email":     req.Email,
		"phone":     req.Phone,
		"updatedAt": time.Now(),
	}}

	result := r.agencies.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	var agency models.Agency
	err := result.Decode(&agency)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, models.ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return &agency, nil
}

// HasChildren reports whether any agency still references id as parent.
func (r *AgencyRepository) HasChildren(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.agencies.CountDocuments(ctx, bson.M{"parentAgencyId": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Remove deletes the agency document itself. The surrounding transaction in
// the agency service cascades the agency's own users, clients and
// commissions; child agencies are guarded by HasChildren before this runs.
func (r *AgencyRepository) Remove(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.agencies.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
