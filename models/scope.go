// models/scope.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AgencyScope is the set of agency ids an actor may act upon. For the
// super-admin the All sentinel stands in for "every agency" so callers never
// materialize the full set; for an operator IDs holds the home subtree.
type AgencyScope struct {
	All bool
	IDs []primitive.ObjectID
}

// Contains reports whether the scope covers the given agency id.
func (s AgencyScope) Contains(id primitive.ObjectID) bool {
	if s.All {
		return true
	}
	for _, scoped := range s.IDs {
		if scoped == id {
			return true
		}
	}
	return false
}
