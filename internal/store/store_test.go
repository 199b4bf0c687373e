package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/internal/product"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

func testProduct(url, name string) *product.Product {
	return &product.Product{
		SourceURL:       url,
		SiteIdentifier:  "BestSecret",
		SKU:             "BS-1",
		ExtractedAt:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Name:            name,
		Brand:           "Acme",
		CurrentPrice:    product.Amount("90"),
		OriginalPrice:   product.Amount("120"),
		Currency:        "EUR",
		AvailableSizes:  []string{"S", "M"},
		OutOfStockSizes: []string{},
		ImageURLs:       []string{},
		StockLevel:      product.StockInStock,
		InStock:         true,
		Category:        "WOMEN",
	}
}

func TestFileStoreUpsertIsIdempotent(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "products.json"))

	require.NoError(t, s.Upsert(testProduct("https://shop.test/product/1", "Coat")))
	require.NoError(t, s.Upsert(testProduct("https://shop.test/product/2", "Dress")))
	require.NoError(t, s.Upsert(testProduct("https://shop.test/product/1", "Coat v2")))

	products, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Coat v2", products[0].Name)
	assert.Equal(t, "Dress", products[1].Name)
	assert.Equal(t, "90", products[0].CurrentPrice.String())

	require.NoError(t, s.Upsert(testProduct("https://shop.test/product/1", "Coat v2")))
	products, _ = s.LoadAll()
	assert.Len(t, products, 2)
}

func TestFileStoreAbsentAndCorruptFiles(t *testing.T) {
	dir := t.TempDir()

	s := NewFileStore(filepath.Join(dir, "missing.json"))
	products, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, products)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("[{not json"), 0644))
	s = NewFileStore(corrupt)
	products, err = s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, products)

	require.NoError(t, s.Upsert(testProduct("https://shop.test/product/1", "Coat")))
	products, _ = s.LoadAll()
	assert.Len(t, products, 1)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "products.json"))
	require.NoError(t, s.Upsert(testProduct("https://shop.test/product/1", "Coat")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"products.json", "products.json.lock"}, names)
}

func TestFileStoresSharingAPathKeepEveryUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	stores := []*FileStore{NewFileStore(path), NewFileStore(path)}

	const perStore = 20
	var wg sync.WaitGroup
	for i, s := range stores {
		wg.Add(1)
		go func(i int, s *FileStore) {
			defer wg.Done()
			for n := 0; n < perStore; n++ {
				url := fmt.Sprintf("https://shop.test/product/%d-%d", i, n)
				assert.NoError(t, s.Upsert(testProduct(url, "Coat")))
			}
		}(i, s)
	}
	wg.Wait()

	products, err := NewFileStore(path).LoadAll()
	require.NoError(t, err)
	assert.Len(t, products, len(stores)*perStore)
}

func TestFileStoreWriteFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "no-such-dir", "products.json"))
	err := s.Upsert(testProduct("https://shop.test/product/1", "Coat"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStoreWrite))

	err = s.Upsert(&product.Product{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStoreWrite))
}

func TestSQLiteMirror(t *testing.T) {
	m, err := OpenMirror("sqlite", filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	defer m.Close()

	p := testProduct("https://shop.test/product/1", "Coat")
	require.NoError(t, m.Upsert(p))
	p.Name = "Coat v2"
	p.OriginalPrice = nil
	require.NoError(t, m.Upsert(p))

	products, err := m.LoadAll()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Coat v2", products[0].Name)
	assert.Nil(t, products[0].OriginalPrice)
}

func TestOpenMirrorRejectsUnknownDriver(t *testing.T) {
	_, err := OpenMirror("mysql", "x")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestRebind(t *testing.T) {
	m := &Mirror{driver: "postgres"}
	assert.Equal(t, "VALUES ($1, $2)", m.rebind("VALUES (?, ?)"))

	m.driver = "sqlite"
	assert.Equal(t, "VALUES (?, ?)", m.rebind("VALUES (?, ?)"))
}
