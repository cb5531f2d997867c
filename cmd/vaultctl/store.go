package main

import (
	"context"

	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/internal/store/fsstore"
	"github.com/dstbp/vaultshard/internal/store/mongo"
)

// openStore selects the Mongo backend when uri is set, falling back to
// the embedded CBOR store rooted at dir otherwise.
func openStore(ctx context.Context, uri, dbName, dir string) (store.KeyValueDB, error) {
	if uri != "" {
		return mongo.Connect(ctx, uri, dbName)
	}
	return fsstore.Open(dir)
}
