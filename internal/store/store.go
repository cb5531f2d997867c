// Package store defines the narrow capability interfaces each role
// depends on for persistence — KeyValueDB for document CRUD and
// ShareStore for node-local share records — generalized from the
// role-segregated interface pattern the teacher used for its signing
// ceremonies (DealerRole/CoordinatorRole/PartyRole), now modeling a
// storage ceremony instead. Two backends satisfy KeyValueDB: a
// production github.com/mongo-driver-backed implementation (store/mongo)
// and an embedded CBOR-on-disk fallback (store/fsstore) for single-node
// demos and tests.
package store

import "context"

// ErrNotFound is returned by KeyValueDB lookups that find no document.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "store: document not found" }

// KeyValueDB is the minimal document-store capability every role needs:
// insert, find one/many by filter, update one, delete one. Documents are
// opaque to the interface; each collection's caller knows its own shape.
type KeyValueDB interface {
	// Insert stores doc under collection, keyed by doc's "_id" field.
	Insert(ctx context.Context, collection string, doc any) error

	// FindOne decodes the first document matching filter into dest.
	// Returns ErrNotFound if no document matches.
	FindOne(ctx context.Context, collection string, filter map[string]any, dest any) error

	// FindMany decodes every document matching filter into dest, a
	// pointer to a slice.
	FindMany(ctx context.Context, collection string, filter map[string]any, dest any) error

	// UpdateOne applies a partial update (field -> new value) to the
	// first document matching filter.
	UpdateOne(ctx context.Context, collection string, filter map[string]any, update map[string]any) error

	// DeleteOne removes the first document matching filter.
	DeleteOne(ctx context.Context, collection string, filter map[string]any) error

	// DeleteMany removes every document matching filter.
	DeleteMany(ctx context.Context, collection string, filter map[string]any) error

	// Close releases any underlying connection.
	Close(ctx context.Context) error
}
