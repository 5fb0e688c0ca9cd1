// services/access_resolver.go
package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/refchain/commission_backend/models"
)

// subtreeSource answers subtree queries against the agency tree store.
// *repositories.AgencyRepository satisfies it.
type subtreeSource interface {
	SubtreeIDs(ctx context.Context, root primitive.ObjectID) ([]primitive.ObjectID, error)
}

// AccessResolver is the single authority for tree-scoped authorization.
// Every component asks it; none re-derives subtree membership on its own.
type AccessResolver struct {
	tree subtreeSource
}

func NewAccessResolver(tree subtreeSource) *AccessResolver {
	return &AccessResolver{tree: tree}
}

// AuthorizedAgencyIDs resolves the actor's scope. The super-admin gets the
// All sentinel; an operator gets the subtree rooted at the home agency,
// home included.
func (r *AccessResolver) AuthorizedAgencyIDs(ctx context.Context, actor models.Actor) (models.AgencyScope, error) {
	if actor.IsAdmin() {
		return models.AgencyScope{All: true}, nil
	}
	if actor.AgencyID == nil {
		// Operator without a home agency cannot see anything.
		return models.AgencyScope{}, nil
	}

	ids, err := r.tree.SubtreeIDs(ctx, *actor.AgencyID)
	if err != nil {
		return models.AgencyScope{}, err
	}
	return models.AgencyScope{IDs: ids}, nil
}

// CanAccess reports whether the actor may act on the target agency. It is
// reflexive: an operator always reaches their own home agency.
func (r *AccessResolver) CanAccess(ctx context.Context, actor models.Actor, target primitive.ObjectID) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if actor.AgencyID == nil {
		return false, nil
	}
	if *actor.AgencyID == target {
		return true, nil
	}

	scope, err := r.AuthorizedAgencyIDs(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.Contains(target), nil
}

// ResolveCreationParent decides where a new agency attaches. An operator's
// request is always pinned under the operator's own home agency no matter
// what parent the request named; the admin's requested parent is used
// verbatim, nil creating a new root.
func (r *AccessResolver) ResolveCreationParent(actor models.Actor, requested *primitive.ObjectID) *primitive.ObjectID {
	if actor.IsAdmin() {
		return requested
	}
	return actor.AgencyID
}
