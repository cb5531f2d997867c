// Package fsstore implements store.KeyValueDB as an embedded, on-disk
// fallback for single-node demos and tests where no MongoDB URI is
// configured. Each collection is one CBOR-encoded file holding a list
// of documents, decoded generically through map[string]any so that
// filter matching doesn't need per-caller schema knowledge — direct
// carry of the teacher's CBOR wire format into a new role as a storage
// encoding rather than a transport one.
package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/dstbp/vaultshard/internal/store"
)

// DB is a directory of CBOR collection files, one goroutine-safe
// in-memory cache per collection flushed to disk on every write.
type DB struct {
	dir string

	mu          sync.Mutex
	collections map[string][]map[string]any
}

// Open creates (if needed) and loads the on-disk store rooted at dir.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fsstore: create dir: %w", err)
	}
	return &DB{dir: dir, collections: make(map[string][]map[string]any)}, nil
}

func (d *DB) path(collection string) string {
	return filepath.Join(d.dir, collection+".cbor")
}

func (d *DB) load(collection string) ([]map[string]any, error) {
	if docs, ok := d.collections[collection]; ok {
		return docs, nil
	}
	raw, err := os.ReadFile(d.path(collection))
	if os.IsNotExist(err) {
		d.collections[collection] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fsstore: read %s: %w", collection, err)
	}
	var docs []map[string]any
	if err := cbor.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("fsstore: decode %s: %w", collection, err)
	}
	d.collections[collection] = docs
	return docs, nil
}

func (d *DB) flush(collection string) error {
	raw, err := cbor.Marshal(d.collections[collection])
	if err != nil {
		return fmt.Errorf("fsstore: encode %s: %w", collection, err)
	}
	if err := os.WriteFile(d.path(collection), raw, 0o644); err != nil {
		return fmt.Errorf("fsstore: write %s: %w", collection, err)
	}
	return nil
}

func toGenericDoc(doc any) (map[string]any, error) {
	raw, err := cbor.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := cbor.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

func fromGenericDoc(doc map[string]any, dest any) error {
	raw, err := cbor.Marshal(doc)
	if err != nil {
		return err
	}
	return cbor.Unmarshal(raw, dest)
}

func matches(doc map[string]any, filter map[string]any) bool {
	generic, err := toGenericDoc(filter)
	if err != nil {
		return false
	}
	for k, v := range generic {
		if doc[k] != v {
			return false
		}
	}
	return true
}

func (d *DB) Insert(_ context.Context, collection string, doc any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs, err := d.load(collection)
	if err != nil {
		return err
	}
	generic, err := toGenericDoc(doc)
	if err != nil {
		return fmt.Errorf("fsstore: encode document: %w", err)
	}
	if id, ok := generic["_id"]; ok {
		for _, existing := range docs {
			if existing["_id"] == id {
				return fmt.Errorf("fsstore: duplicate _id %v in %s", id, collection)
			}
		}
	}
	d.collections[collection] = append(docs, generic)
	return d.flush(collection)
}

func (d *DB) FindOne(_ context.Context, collection string, filter map[string]any, dest any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs, err := d.load(collection)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if matches(doc, filter) {
			return fromGenericDoc(doc, dest)
		}
	}
	return store.ErrNotFound
}

func (d *DB) FindMany(_ context.Context, collection string, filter map[string]any, dest any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs, err := d.load(collection)
	if err != nil {
		return err
	}
	var matched []map[string]any
	for _, doc := range docs {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	raw, err := cbor.Marshal(matched)
	if err != nil {
		return fmt.Errorf("fsstore: encode matches: %w", err)
	}
	if err := cbor.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("fsstore: decode matches: %w", err)
	}
	return nil
}

func (d *DB) UpdateOne(_ context.Context, collection string, filter, update map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs, err := d.load(collection)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if matches(doc, filter) {
			for k, v := range update {
				doc[k] = v
			}
			return d.flush(collection)
		}
	}
	return store.ErrNotFound
}

func (d *DB) DeleteOne(_ context.Context, collection string, filter map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs, err := d.load(collection)
	if err != nil {
		return err
	}
	for i, doc := range docs {
		if matches(doc, filter) {
			d.collections[collection] = append(docs[:i], docs[i+1:]...)
			return d.flush(collection)
		}
	}
	return store.ErrNotFound
}

func (d *DB) DeleteMany(_ context.Context, collection string, filter map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs, err := d.load(collection)
	if err != nil {
		return err
	}
	kept := docs[:0]
	for _, doc := range docs {
		if !matches(doc, filter) {
			kept = append(kept, doc)
		}
	}
	d.collections[collection] = kept
	return d.flush(collection)
}

func (d *DB) Close(context.Context) error { return nil }

var _ store.KeyValueDB = (*DB)(nil)
