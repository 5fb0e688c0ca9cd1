package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/refchain/commission_backend/models"
)

// stubTree serves canned subtrees keyed by root id.
type stubTree struct {
	subtrees map[primitive.ObjectID][]primitive.ObjectID
}

func (s *stubTree) SubtreeIDs(_ context.Context, root primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.subtrees[root], nil
}

func operatorOf(agency primitive.ObjectID) models.Actor {
	return models.Actor{
		UserID:   primitive.NewObjectID(),
		Role:     models.RoleAgency,
		AgencyID: &agency,
	}
}

func TestAdminScopeIsSentinel(t *testing.T) {
	resolver := NewAccessResolver(&stubTree{})
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}

	scope, err := resolver.AuthorizedAgencyIDs(context.Background(), admin)
	require.NoError(t, err)
	require.True(t, scope.All)
	require.Empty(t, scope.IDs, "admin scope must not materialize an explicit set")

	ok, err := resolver.CanAccess(context.Background(), admin, primitive.NewObjectID())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOperatorScopeIsHomeSubtree(t *testing.T) {
	home := primitive.NewObjectID()
	child := primitive.NewObjectID()
	tree := &stubTree{subtrees: map[primitive.ObjectID][]primitive.ObjectID{
		home: {home, child},
	}}
	resolver := NewAccessResolver(tree)

	scope, err := resolver.AuthorizedAgencyIDs(context.Background(), operatorOf(home))
	require.NoError(t, err)
	require.False(t, scope.All)
	require.ElementsMatch(t, []primitive.ObjectID{home, child}, scope.IDs)
}

func TestCanAccessIsReflexive(t *testing.T) {
	home := primitive.NewObjectID()
	resolver := NewAccessResolver(&stubTree{subtrees: map[primitive.ObjectID][]primitive.ObjectID{
		home: {home},
	}})

	ok, err := resolver.CanAccess(context.Background(), operatorOf(home), home)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOperatorCannotReachUpward(t *testing.T) {
	root := primitive.NewObjectID()
	child := primitive.NewObjectID()
	tree := &stubTree{subtrees: map[primitive.ObjectID][]primitive.ObjectID{
		root:  {root, child},
		child: {child},
	}}
	resolver := NewAccessResolver(tree)

	// Operator bound to the child cannot see the root...
	ok, err := resolver.CanAccess(context.Background(), operatorOf(child), root)
	require.NoError(t, err)
	require.False(t, ok)

	// ...but the operator bound to the root reaches the child.
	ok, err = resolver.CanAccess(context.Background(), operatorOf(root), child)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOperatorWithoutHomeSeesNothing(t *testing.T) {
	resolver := NewAccessResolver(&stubTree{})
	orphan := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAgency}

	scope, err := resolver.AuthorizedAgencyIDs(context.Background(), orphan)
	require.NoError(t, err)
	require.False(t, scope.All)
	require.Empty(t, scope.IDs)

	ok, err := resolver.CanAccess(context.Background(), orphan, primitive.NewObjectID())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolveCreationParentPinsOperator(t *testing.T) {
	resolver := NewAccessResolver(&stubTree{})
	home := primitive.NewObjectID()
	elsewhere := primitive.NewObjectID()

	// Whatever parent the operator asks for, the new agency lands under home.
	got := resolver.ResolveCreationParent(operatorOf(home), &elsewhere)
	require.NotNil(t, got)
	require.Equal(t, home, *got)

	got = resolver.ResolveCreationParent(operatorOf(home), nil)
	require.NotNil(t, got)
	require.Equal(t, home, *got)
}

func TestResolveCreationParentHonorsAdminRequest(t *testing.T) {
	resolver := NewAccessResolver(&stubTree{})
	admin := models.Actor{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	requested := primitive.NewObjectID()

	got := resolver.ResolveCreationParent(admin, &requested)
	require.NotNil(t, got)
	require.Equal(t, requested, *got)

	// nil creates a new root for the admin.
	require.Nil(t, resolver.ResolveCreationParent(admin, nil))
}
