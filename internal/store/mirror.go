package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"sjsage522/catalogworker/internal/product"
	"sjsage522/catalogworker/logger"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

const createProductsTable = `
	CREATE TABLE IF NOT EXISTS products (
		source_url TEXT PRIMARY KEY,
		site TEXT NOT NULL,
		sku TEXT NOT NULL,
		name TEXT NOT NULL,
		brand TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		gender TEXT NOT NULL,
		current_price TEXT,
		original_price TEXT,
		currency TEXT NOT NULL,
		in_stock BOOLEAN NOT NULL,
		data TEXT NOT NULL,
		extracted_at TIMESTAMP NOT NULL
	)
`

const upsertProduct = `
	INSERT INTO products (source_url, site, sku, name, brand, category, subcategory, gender,
		current_price, original_price, currency, in_stock, data, extracted_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_url)
	DO UPDATE SET site = excluded.site, sku = excluded.sku, name = excluded.name,
		brand = excluded.brand, category = excluded.category, subcategory = excluded.subcategory,
		gender = excluded.gender, current_price = excluded.current_price,
		original_price = excluded.original_price, currency = excluded.currency,
		in_stock = excluded.in_stock, data = excluded.data, extracted_at = excluded.extracted_at
`

// Mirror copies stored products into a relational table for downstream queries.
// The JSON file stays the source of truth.
type Mirror struct {
	db     *sql.DB
	driver string
}

// OpenMirror opens driver ("sqlite" or "postgres") at dsn and creates the products table
func OpenMirror(driver, dsn string) (*Mirror, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, apperrors.NewConfiguration(fmt.Sprintf("unsupported mirror driver %q", driver), nil)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperrors.NewStoreWrite(dsn, "open mirror", err)
	}
	if _, err := db.Exec(createProductsTable); err != nil {
		db.Close()
		return nil, apperrors.NewStoreWrite(dsn, "create products table", err)
	}

	logger.ForStore().Info().Str("driver", driver).Msg("Mirror opened")
	return &Mirror{db: db, driver: driver}, nil
}

// Upsert writes p, replacing any row with the same source_url
func (m *Mirror) Upsert(p *product.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return apperrors.NewStoreWrite(m.driver, "encode product", err)
	}

	_, err = m.db.Exec(m.rebind(upsertProduct),
		p.SourceURL, p.SiteIdentifier, p.SKU, p.Name, p.Brand, p.Category, p.Subcategory, p.Gender,
		decimalText(p.CurrentPrice), decimalText(p.OriginalPrice), p.Currency, p.InStock,
		string(data), p.ExtractedAt,
	)
	if err != nil {
		return apperrors.NewStoreWrite(m.driver, "upsert "+p.SourceURL, err)
	}
	return nil
}

// LoadAll reads every mirrored product back from its JSON column
func (m *Mirror) LoadAll() ([]product.Product, error) {
	rows, err := m.db.Query(`SELECT data FROM products ORDER BY source_url`)
	if err != nil {
		return nil, apperrors.NewStoreWrite(m.driver, "query products", err)
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p product.Product
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			logger.ForStore().Warn().Err(err).Msg("Skipping undecodable mirror row")
			continue
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Close closes the database handle
func (m *Mirror) Close() error {
	return m.db.Close()
}

// rebind turns ? placeholders into $n for postgres
func (m *Mirror) rebind(query string) string {
	if m.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func decimalText(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
