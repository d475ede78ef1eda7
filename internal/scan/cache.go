package scan

import (
	"fmt"

	"github.com/hashicorp/go-memdb"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
)

// Cache is a read-through store of loaded files keyed by path. Directory
// scans, study propagation and volume assembly open the same files several
// times; the cache makes every open after the first free.
type Cache struct {
	db *memdb.MemDB
}

type cachedFile struct {
	Path string
	File *internaldicom.File
}

// NewCache builds an empty cache.
func NewCache() (*Cache, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"file": {
				Name: "file",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Path"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Load returns the cached file for path, loading and caching it on a miss.
func (c *Cache) Load(path string) (*internaldicom.File, error) {
	txn := c.db.Txn(false)
	raw, err := txn.First("file", "id", path)
	txn.Abort()
	if err == nil && raw != nil {
		return raw.(*cachedFile).File, nil
	}

	f, err := internaldicom.Load(path)
	if err != nil {
		return nil, err
	}

	write := c.db.Txn(true)
	if err := write.Insert("file", &cachedFile{Path: path, File: f}); err != nil {
		write.Abort()
		return nil, fmt.Errorf("cache %s: %w", path, err)
	}
	write.Commit()
	return f, nil
}

// Len reports how many files are cached.
func (c *Cache) Len() int {
	txn := c.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("file", "id")
	if err != nil {
		return 0
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n
}
