package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLevelFromChainAbsoluteDepth(t *testing.T) {
	node := primitive.NewObjectID()
	parent := primitive.NewObjectID()
	grandparent := primitive.NewObjectID()

	require.Equal(t, 0, levelFromChain([]primitive.ObjectID{node}, nil))
	require.Equal(t, 1, levelFromChain([]primitive.ObjectID{node, parent}, nil))
	require.Equal(t, 2, levelFromChain([]primitive.ObjectID{node, parent, grandparent}, nil))
}

func TestLevelFromChainRelativeToSubtreeRoot(t *testing.T) {
	node := primitive.NewObjectID()
	parent := primitive.NewObjectID()
	root := primitive.NewObjectID()
	beyond := primitive.NewObjectID()
	chain := []primitive.ObjectID{node, parent, root, beyond}

	// Depth counts from the requested root, not the forest root.
	require.Equal(t, 2, levelFromChain(chain, &root))
	require.Equal(t, 0, levelFromChain([]primitive.ObjectID{root, beyond}, &root))
}

func TestLevelFromChainRootNotInChainFallsBack(t *testing.T) {
	node := primitive.NewObjectID()
	parent := primitive.NewObjectID()
	elsewhere := primitive.NewObjectID()

	require.Equal(t, 1, levelFromChain([]primitive.ObjectID{node, parent}, &elsewhere))
}

func TestLevelFromChainEmptyChain(t *testing.T) {
	require.Equal(t, 0, levelFromChain(nil, nil))
	other := primitive.NewObjectID()
	require.Equal(t, 0, levelFromChain(nil, &other))
}
