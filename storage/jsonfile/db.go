// Package jsonfile persists each collection as one flat JSON document with
// read-all/write-all semantics: a write replaces the whole collection.
package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

type (
	DB struct {
		users *collection
		tasks *collection
	}

	// collection guards one backing file; the mutex serializes every
	// read-modify-write sequence so the later writer cannot clobber a
	// concurrent one unseen.
	collection struct {
		sync.Mutex
		path string
	}
)

// Open prepares the collections under dir, seeding empty files when absent.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(core.ErrStoreUnavailable, "creating %s: %v", dir, err)
	}

	db := &DB{
		users: &collection{path: filepath.Join(dir, "users.json")},
		tasks: &collection{path: filepath.Join(dir, "tasks.json")},
	}
	for _, c := range []*collection{db.users, db.tasks} {
		if _, err := os.Stat(c.path); os.IsNotExist(err) {
			if err := c.write([]struct{}{}); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, errors.Wrapf(core.ErrStoreUnavailable, "stat %s: %v", c.path, err)
		}
	}
	return db, nil
}

// read expects c to be locked by the caller.
func (c *collection) read(v interface{}) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return errors.Wrapf(core.ErrStoreUnavailable, "reading %s: %v", c.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(core.ErrStoreUnavailable, "decoding %s: %v", c.path, err)
	}
	return nil
}

// write expects c to be locked by the caller; it replaces the whole document.
func (c *collection) write(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(core.ErrStoreUnavailable, "encoding %s: %v", c.path, err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return errors.Wrapf(core.ErrStoreUnavailable, "writing %s: %v", c.path, err)
	}
	return nil
}
