// repositories/tree.go
package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// childLookup returns the direct children of an agency id.
type childLookup func(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error)

// parentLookup returns the parent of an agency id, nil for a root, or
// models.ErrNotFound if the agency does not exist.
type parentLookup func(ctx context.Context, id primitive.ObjectID) (*primitive.ObjectID, error)

// walkSubtree collects root plus everything reachable through child links.
// The parent relation is acyclic by invariant, but the visited set defends
// against a corrupted link so the walk always terminates.
func walkSubtree(ctx context.Context, root primitive.ObjectID, children childLookup) ([]primitive.ObjectID, error) {
	visited := map[primitive.ObjectID]bool{root: true}
	ids := []primitive.ObjectID{root}
	queue := []primitive.ObjectID{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		childIDs, err := children(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range childIDs {
			if visited[child] {
				continue
			}
			visited[child] = true
			ids = append(ids, child)
			queue = append(queue, child)
		}
	}
	return ids, nil
}

// walkAncestors returns the chain from id up to its root, id first. Same
// visited-set defense as walkSubtree.
func walkAncestors(ctx context.Context, id primitive.ObjectID, parent parentLookup) ([]primitive.ObjectID, error) {
	visited := map[primitive.ObjectID]bool{}
	chain := []primitive.ObjectID{}
	current := id

	for {
		if visited[current] {
			return chain, nil
		}
		visited[current] = true
		chain = append(chain, current)

		parentID, err := parent(ctx, current)
		if err != nil {
			return nil, err
		}
		if parentID == nil {
			return chain, nil
		}
		current = *parentID
	}
}
