// Package store persists assembled products keyed by source URL.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"sjsage522/catalogworker/internal/product"
	"sjsage522/catalogworker/logger"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

// Store is the durable product collection
type Store interface {
	// Upsert replaces the record with the same SourceURL or appends it
	Upsert(p *product.Product) error

	// LoadAll returns every stored record
	LoadAll() ([]product.Product, error)
}

// FileStore keeps the whole collection in one JSON file.
// Every Upsert rewrites the file through a temp file and a rename, so readers
// never observe a partial collection. Upserts hold an advisory lock on
// path+".lock", which serialises writers across stores and processes.
type FileStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// LoadAll returns the stored collection. An absent or unparsable file is an
// empty collection.
func (s *FileStore) LoadAll() ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// Upsert loads the collection, replaces or appends p, and writes it back
func (s *FileStore) Upsert(p *product.Product) error {
	if p == nil || p.SourceURL == "" {
		return apperrors.NewStoreWrite(s.path, "record without source url", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return apperrors.NewStoreWrite(s.path, "lock store file", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logger.ForStore().Warn().Err(err).Str("path", s.path).Msg("Failed to release store lock")
		}
	}()

	products := s.load()
	replaced := false
	for i := range products {
		if products[i].SourceURL == p.SourceURL {
			products[i] = *p
			replaced = true
			break
		}
	}
	if !replaced {
		products = append(products, *p)
	}

	if err := s.write(products); err != nil {
		return err
	}

	logger.ForStore().Debug().
		Str("url", p.SourceURL).
		Bool("replaced", replaced).
		Int("total", len(products)).
		Msg("Product upserted")
	return nil
}

func (s *FileStore) load() []product.Product {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.ForStore().Warn().Err(err).Str("path", s.path).Msg("Store unreadable, treating as empty")
		}
		return []product.Product{}
	}

	var products []product.Product
	if err := json.Unmarshal(data, &products); err != nil {
		logger.ForStore().Warn().Err(err).Str("path", s.path).Msg("Store corrupt, treating as empty")
		return []product.Product{}
	}
	if products == nil {
		products = []product.Product{}
	}
	return products
}

func (s *FileStore) write(products []product.Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return apperrors.NewStoreWrite(s.path, "encode collection", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperrors.NewStoreWrite(s.path, "create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return apperrors.NewStoreWrite(s.path, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return apperrors.NewStoreWrite(s.path, "sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStoreWrite(s.path, "close temp file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStoreWrite(s.path, "rename temp file", err)
	}
	return nil
}
