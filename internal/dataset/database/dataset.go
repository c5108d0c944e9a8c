// Package database stores datasets as JSON documents in bolt, one bucket
// per dataset name plus a key bucket for listing.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"sibyl/internal/database"
	"sibyl/internal/dataset/model"
)

const (
	datasetKeys = "dataset:keys:"
	prefix      = "dataset:"
)

type FilterFn func(dataset model.Dataset) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Names lists the stored dataset names.
func (db *DB) Names() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

// Store persists the dataset under its name, replacing any previous version.
func (db *DB) Store(_ context.Context, dataset model.Dataset) error {
	var b *bolt.Bucket
	bytes, err := json.Marshal(dataset)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err = tx.CreateBucketIfNotExists([]byte(prefix + dataset.Name))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(dataset.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		b, err = tx.CreateBucketIfNotExists([]byte(datasetKeys))
		if err != nil {
			return fmt.Errorf("unable create keys bucket: %w", err)
		}
		if err := b.Put([]byte(prefix+dataset.Name), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// FindByName returns the most recently stored dataset under the name, or ok
// false when nothing is stored.
func (db *DB) FindByName(_ context.Context, name string) (model.Dataset, bool, error) {
	var (
		dataset model.Dataset
		found   bool
	)
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var d model.Dataset
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if !found || d.CreatedAt.After(dataset.CreatedAt) {
				dataset = d
				found = true
			}
		}
		return nil
	}); err != nil {
		return model.Dataset{}, false, fmt.Errorf("view transaction error: %v", err)
	}

	return dataset, found, nil
}

// FindAll returns every stored dataset matching the filter.
func (db *DB) FindAll(ctx context.Context, filter FilterFn) ([]model.Dataset, error) {
	names, err := db.Names()
	if err != nil {
		return nil, err
	}

	var datasets []model.Dataset
	for _, name := range names {
		dataset, ok, err := db.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if filter == nil || filter(dataset) {
			datasets = append(datasets, dataset)
		}
	}

	return datasets, nil
}

// Delete drops the dataset bucket and its key entry.
func (db *DB) Delete(_ context.Context, name string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(prefix + name)); b != nil {
			if err := tx.DeleteBucket([]byte(prefix + name)); err != nil {
				return fmt.Errorf("unable delete bucket: %w", err)
			}
		}
		if b := tx.Bucket([]byte(datasetKeys)); b != nil {
			if err := b.Delete([]byte(prefix + name)); err != nil {
				return fmt.Errorf("unable delete key: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// CountByName reports how many versions of a dataset are stored.
func (db *DB) CountByName(name string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			length = 0
			return nil
		}
		stats := b.Stats()
		length = stats.KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return length, nil
}
