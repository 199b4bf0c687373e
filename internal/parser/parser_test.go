package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/internal/agent"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/internal/navigator"
	"sjsage522/catalogworker/internal/product"
	"sjsage522/catalogworker/internal/selectors"
	"sjsage522/catalogworker/internal/session"
	"sjsage522/catalogworker/internal/store"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

const root = "https://www.shop.test"

const completePage = `<html><head>
<script type="application/ld+json">
{"@type": "Product", "name": "Wool Coat", "brand": {"name": "Acme"},
 "offers": {"price": "90.00", "priceCurrency": "EUR", "availability": "https://schema.org/InStock"}}
</script></head><body>
<h1 class="product-name">Wool Coat</h1>
<div class="brand-name">Acme</div>
<span class="color-name">Camel</span>
<div class="product-description">Soft wool coat. RRP 120,00 € - 25% 90,00 € Available in sizes XS-M.</div>
<img src="/img/coat-1.jpg">
</body></html>`

const namelessPage = `<html><body>
<div class="brand-name">Acme</div>
<p>Nothing else to see</p>
</body></html>`

func testPages() agent.MapSource {
	return agent.MapSource{
		root + "/entrance": `<html><body><a id="login-button" href="https://login.shop.test/">Login</a></body></html>`,
		"https://login.shop.test/": `<html><body><form action="https://www.shop.test/">
			<input id="username" name="username"><input id="password" name="password" type="password">
			<button id="kc-login" type="submit">LOGIN</button></form></body></html>`,
		root + "/": `<html><body><div class="gender-switch-links">
			<a href="/women">WOMEN</a><a href="/men">MEN</a></div></body></html>`,
		root + "/women": `<html><body>
			<a href="/product/P1">Coat</a>
			<a href="/product/P2">Mystery</a>
			<a href="/product/P3">Gone</a>
			<a href="/product/P1">Coat again</a>
		</body></html>`,
		root + "/men":        `<html><body><a href="/product/P2">Mystery</a></body></html>`,
		root + "/product/P1": completePage,
		root + "/product/P2": namelessPage,
	}
}

type mockMirror struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (m *mockMirror) Upsert(p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, p.SourceURL)
	return m.err
}

type mockPublisher struct {
	mu        sync.Mutex
	keys      []string
	onPublish func()
}

func (m *mockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	if m.onPublish != nil {
		m.onPublish()
	}
	return nil
}

func (m *mockPublisher) TrimStreams() error { return nil }

func (m *mockPublisher) Close() error { return nil }

type mockFailures struct {
	mu     sync.Mutex
	scopes []string
}

func (m *mockFailures) LogError(scope string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes = append(m.scopes, scope)
}

func (m *mockFailures) LogInfo(format string, args ...interface{}) {}

type failingStore struct{}

func (failingStore) Upsert(p *product.Product) error {
	return apperrors.NewStoreWrite("products.json", "disk full", errors.New("ENOSPC"))
}

func (failingStore) LoadAll() ([]product.Product, error) { return nil, nil }

type fixture struct {
	parser    *Parser
	store     *store.FileStore
	mirror    *mockMirror
	publisher *mockPublisher
	failures  *mockFailures
}

func newFixture(t *testing.T, pages agent.MapSource, st store.Store) *fixture {
	t.Helper()
	table := selectors.Default()
	a := agent.NewDocumentAgent(pages)

	fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "products.json"))
	if st == nil {
		st = fileStore
	}

	f := &fixture{
		store:     fileStore,
		mirror:    &mockMirror{},
		publisher: &mockPublisher{},
		failures:  &mockFailures{},
	}
	f.parser = New(Deps{
		Agent: a,
		Table: table,
		Navigator: navigator.New(a, table, navigator.Options{
			HomeURL:  root + "/",
			SiteRoot: root,
		}),
		Registry: extract.NewRegistry(table.Product, extract.Options{
			SiteRoot:     root,
			Currency:     "EUR",
			MaxImages:    5,
			ProbeTimeout: 100 * time.Millisecond,
		}),
		Assembler: product.NewAssembler("Shop", "SH", "EUR", 5),
		Store:     st,
		Mirror:    f.mirror,
		Publisher: f.publisher,
		Failures:  f.failures,
		Session: session.NewController(session.Options{
			Site:            "Shop",
			EntryURL:        root + "/entrance",
			LoginURL:        "https://login.shop.test/",
			AuthDomain:      "shop.test",
			LoginHostPrefix: "login.",
			LoginTimeout:    5 * time.Second,
			ProbeTimeout:    100 * time.Millisecond,
			ConsentTimeout:  10 * time.Millisecond,
		}, table.Session, nil),
		Credentials: session.Credentials{Email: "buyer@example.com", Password: "secret"},
		PageTimeout: 5 * time.Second,
		FilterIndex: -1,
	})
	return f
}

func TestParseCategoryEndToEnd(t *testing.T) {
	f := newFixture(t, testPages(), nil)

	products, summary, err := f.parser.ParseCategory(context.Background(), "WOMEN", "", 10)
	require.NoError(t, err)

	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, root+"/product/P1", p.SourceURL)
	assert.Equal(t, "Wool Coat", p.Name)
	assert.Equal(t, "Acme", p.Brand)
	assert.Equal(t, "120", p.OriginalPrice.String())
	assert.Equal(t, "90", p.CurrentPrice.String())
	assert.Equal(t, "25", p.DiscountPercentage.String())
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, "SH-P1", p.SKU)
	assert.Equal(t, []string{"XS", "S", "M"}, p.AvailableSizes)
	assert.Equal(t, "WOMEN", p.Category)
	assert.Equal(t, "women", p.Gender)

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 2, summary.Extracted)
	assert.Equal(t, 1, summary.Stored)
	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.FieldHits[extract.FieldBrand])
	assert.Equal(t, 1, summary.FieldHits[extract.FieldName])
	assert.InDelta(t, 0.5, summary.Coverage(extract.FieldName), 1e-9)

	stored, err := f.store.LoadAll()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, p.SourceURL, stored[0].SourceURL)

	assert.Equal(t, []string{p.SourceURL}, f.mirror.urls)
	assert.Equal(t, []string{p.SourceURL}, f.publisher.keys)
	assert.ElementsMatch(t, []string{root + "/product/P2", root + "/product/P3"}, f.failures.scopes)

	// a second run replaces rather than appends
	_, _, err = f.parser.ParseCategory(context.Background(), "WOMEN", "", 10)
	require.NoError(t, err)
	stored, _ = f.store.LoadAll()
	assert.Len(t, stored, 1)
}

func TestMissingNameIsDroppedAndStoreUntouched(t *testing.T) {
	f := newFixture(t, testPages(), nil)

	products, summary, err := f.parser.ParseCategory(context.Background(), "MEN", "", 10)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, 0, summary.Stored)

	_, statErr := os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(statErr), "store file must not be created")
	assert.Empty(t, f.publisher.keys)
}

func TestUnknownCategoryIsNavigationFailure(t *testing.T) {
	f := newFixture(t, testPages(), nil)

	products, summary, err := f.parser.ParseCategory(context.Background(), "KIDS", "", 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNavigation))
	assert.Empty(t, products)
	assert.Zero(t, summary.Attempted)

	// the parser stays usable for the next category
	_, _, err = f.parser.ParseCategory(context.Background(), "WOMEN", "", 1)
	assert.NoError(t, err)
}

func TestSubcategoryFailureContinuesAtCategory(t *testing.T) {
	f := newFixture(t, testPages(), nil)

	products, _, err := f.parser.ParseCategory(context.Background(), "WOMEN", "WOMEN_SHOES", 1)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "", products[0].Subcategory)
	assert.Contains(t, f.failures.scopes, "WOMEN/WOMEN_SHOES")
}

func TestStoreFailureAbortsCategory(t *testing.T) {
	f := newFixture(t, testPages(), failingStore{})

	products, summary, err := f.parser.ParseCategory(context.Background(), "WOMEN", "", 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStoreWrite))
	assert.Empty(t, products)
	assert.Equal(t, 1, summary.Attempted)
	assert.Empty(t, f.publisher.keys)
}

func TestCancellationBetweenProducts(t *testing.T) {
	pages := testPages()
	pages[root+"/women"] = `<html><body>
		<a href="/product/P1">Coat</a><a href="/product/P4">Coat 2</a></body></html>`
	pages[root+"/product/P4"] = completePage

	f := newFixture(t, pages, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.publisher.onPublish = cancel

	products, summary, err := f.parser.ParseCategory(ctx, "WOMEN", "", 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, summary.Attempted)
}

func TestAuthFailureIsReturned(t *testing.T) {
	pages := testPages()
	pages["https://login.shop.test/"] = `<html><body><p>Maintenance</p></body></html>`
	f := newFixture(t, pages, nil)

	_, _, err := f.parser.ParseCategory(context.Background(), "WOMEN", "", 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAuth))
}

func TestResetSessionLogsInAgain(t *testing.T) {
	f := newFixture(t, testPages(), nil)
	ctx := context.Background()

	require.NoError(t, f.parser.EnsureSession(ctx))
	first := f.parser.session
	require.NotNil(t, first)

	require.NoError(t, f.parser.EnsureSession(ctx))
	assert.Same(t, first, f.parser.session)

	f.parser.ResetSession()
	assert.Nil(t, f.parser.session)

	_, _, err := f.parser.ParseCategory(ctx, "WOMEN", "", 10)
	require.NoError(t, err)
	require.NotNil(t, f.parser.session)
	assert.NotSame(t, first, f.parser.session)
}

func TestSummaryMergeAndRender(t *testing.T) {
	a := NewSummary()
	a.Attempted, a.Stored = 2, 2
	a.recordHits(map[string]bool{extract.FieldName: true, extract.FieldSizes: false})
	a.recordHits(map[string]bool{extract.FieldName: true, extract.FieldSizes: true})

	var b Summary
	b.Attempted, b.Dropped = 1, 1
	b.recordHits(map[string]bool{extract.FieldName: false})

	total := NewSummary()
	total.Merge(a)
	total.Merge(b)
	assert.Equal(t, 3, total.Attempted)
	assert.Equal(t, 3, total.Extracted)
	assert.Equal(t, 2, total.FieldHits[extract.FieldName])
	assert.InDelta(t, 2.0/3.0, total.Coverage(extract.FieldName), 1e-9)
	assert.Zero(t, NewSummary().Coverage(extract.FieldName))

	var buf bytes.Buffer
	total.Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "ATTEMPTED")
	for _, field := range extract.FieldKeys {
		assert.Contains(t, out, field)
	}
	assert.Contains(t, out, fmt.Sprintf("%.0f%%", 2.0/3.0*100))
}
