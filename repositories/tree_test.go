package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeTree is an in-memory parent-indexed forest.
type fakeTree struct {
	parents map[primitive.ObjectID]*primitive.ObjectID
}

func newFakeTree() *fakeTree {
	return &fakeTree{parents: map[primitive.ObjectID]*primitive.ObjectID{}}
}

func (t *fakeTree) add(parent *primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	t.parents[id] = parent
	return id
}

func (t *fakeTree) children(_ context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for child, parent := range t.parents {
		if parent != nil && *parent == id {
			out = append(out, child)
		}
	}
	return out, nil
}

func (t *fakeTree) parent(_ context.Context, id primitive.ObjectID) (*primitive.ObjectID, error) {
	return t.parents[id], nil
}

func TestWalkSubtreeIncludesRootAndDescendants(t *testing.T) {
	tree := newFakeTree()
	root := tree.add(nil)
	childA := tree.add(&root)
	childB := tree.add(&root)
	grandchild := tree.add(&childA)
	other := tree.add(nil) // unrelated root

	ids, err := walkSubtree(context.Background(), root, tree.children)
	require.NoError(t, err)
	require.ElementsMatch(t, []primitive.ObjectID{root, childA, childB, grandchild}, ids)
	require.NotContains(t, ids, other)
}

func TestWalkSubtreeLeafIsItself(t *testing.T) {
	tree := newFakeTree()
	root := tree.add(nil)
	leaf := tree.add(&root)

	ids, err := walkSubtree(context.Background(), leaf, tree.children)
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{leaf}, ids)
}

func TestWalkSubtreeTerminatesOnCorruptedCycle(t *testing.T) {
	tree := newFakeTree()
	a := tree.add(nil)
	b := tree.add(&a)
	// Corrupt the forest: a's parent becomes b.
	tree.parents[a] = &b

	ids, err := walkSubtree(context.Background(), a, tree.children)
	require.NoError(t, err)
	require.ElementsMatch(t, []primitive.ObjectID{a, b}, ids)
}

func TestWalkAncestorsReachesRoot(t *testing.T) {
	tree := newFakeTree()
	root := tree.add(nil)
	mid := tree.add(&root)
	leaf := tree.add(&mid)

	chain, err := walkAncestors(context.Background(), leaf, tree.parent)
	require.NoError(t, err)
	require.Equal(t, []primitive.ObjectID{leaf, mid, root}, chain)
}

// Every member of a subtree must be able to walk back up to the subtree
// root. This is the round-trip consistency the resolver relies on.
func TestSubtreeAncestorRoundTrip(t *testing.T) {
	tree := newFakeTree()
	root := tree.add(nil)
	a := tree.add(&root)
	b := tree.add(&a)
	c := tree.add(&b)
	_ = c

	ids, err := walkSubtree(context.Background(), root, tree.children)
	require.NoError(t, err)

	for _, id := range ids {
		chain, err := walkAncestors(context.Background(), id, tree.parent)
		require.NoError(t, err)
		require.Contains(t, chain, root)
	}
}

func TestWalkAncestorsTerminatesOnCorruptedCycle(t *testing.T) {
	tree := newFakeTree()
	a := tree.add(nil)
	b := tree.add(&a)
	tree.parents[a] = &b

	chain, err := walkAncestors(context.Background(), b, tree.parent)
	require.NoError(t, err)
	require.ElementsMatch(t, []primitive.ObjectID{a, b}, chain)
}
