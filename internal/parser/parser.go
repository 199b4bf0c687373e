// Package parser is the extraction entry point: it walks one category and
// turns every product page it finds into a stored record.
package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/internal/agent"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/internal/navigator"
	"sjsage522/catalogworker/internal/product"
	"sjsage522/catalogworker/internal/selectors"
	"sjsage522/catalogworker/internal/session"
	"sjsage522/catalogworker/internal/store"
	"sjsage522/catalogworker/logger"
	apperrors "sjsage522/catalogworker/pkg/errors"
	"sjsage522/catalogworker/services/publisher"
)

// Mirror receives a copy of every stored product. Its failures are logged only.
type Mirror interface {
	Upsert(p *product.Product) error
}

// Deps are the collaborators of a Parser. Session, Mirror, Publisher and
// Failures are optional.
type Deps struct {
	Agent       agent.Agent
	Table       *selectors.Table
	Navigator   *navigator.Navigator
	Registry    *extract.Registry
	Assembler   *product.Assembler
	Store       store.Store
	Mirror      Mirror
	Publisher   publisher.Publisher
	Failures    helpers.FailureLogger
	Session     *session.Controller
	Credentials session.Credentials

	// ProductInterval is the minimum spacing between product page loads
	ProductInterval time.Duration
	// PageTimeout bounds the load and extraction of one product page
	PageTimeout time.Duration
	// FilterIndex selects a listing filter when the table has one for the
	// current selection; negative disables filtering
	FilterIndex int
}

// Parser runs category parses over one agent session. It is not safe for
// concurrent use; run one Parser per agent.
type Parser struct {
	deps    Deps
	limiter *rate.Limiter
	session *session.Session
}

// New creates a parser
func New(deps Deps) *Parser {
	limit := rate.Inf
	if deps.ProductInterval > 0 {
		limit = rate.Every(deps.ProductInterval)
	}
	return &Parser{
		deps:    deps,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// EnsureSession logs in once per parser. Without a session controller the
// agent is assumed to be usable as is.
func (p *Parser) EnsureSession(ctx context.Context) error {
	if p.session != nil || p.deps.Session == nil {
		return nil
	}
	s, err := p.deps.Session.Establish(ctx, p.deps.Agent, p.deps.Credentials)
	if err != nil {
		return err
	}
	p.session = s
	return nil
}

// ResetSession forgets the current session so the next category logs in
// again. Site sessions expire, so long-running callers reset between runs.
func (p *Parser) ResetSession() {
	p.session = nil
}

// ParseCategory collects up to max product URLs from category (and
// subcategory when given) and parses each of them in order. Dropped and
// failed products are counted, written to the failure log and skipped.
// A store failure aborts the category and is returned together with the
// products stored so far; returned errors are left to the caller to log.
func (p *Parser) ParseCategory(ctx context.Context, category, subcategory string, max int) ([]product.Product, Summary, error) {
	summary := NewSummary()
	log := logger.ForNavigator().WithFields(logger.Fields{"category": category, "subcategory": subcategory})

	if err := p.EnsureSession(ctx); err != nil {
		return nil, summary, err
	}

	links, pctx, err := p.collect(ctx, category, subcategory, max)
	if err != nil {
		return nil, summary, err
	}
	log.Info().Int("links", len(links)).Msg("Parsing category")

	products := make([]product.Product, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			log.Warn().Msg("Cancelled between products")
			return products, summary, err
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return products, summary, err
		}

		summary.Attempted++
		rec, fields, err := p.ParseProduct(ctx, link, pctx)
		if fields.Hits != nil {
			summary.recordHits(fields.Hits)
		}
		switch {
		case err == nil:
		case apperrors.IsType(err, apperrors.ErrorTypeRecordInvalid):
			summary.Dropped++
			logger.ForProduct(link).Warn().Err(err).Msg("Product dropped")
			p.logFailure(link, err)
			continue
		default:
			summary.Failed++
			logger.ForProduct(link).Warn().Err(err).Msg("Product failed")
			p.logFailure(link, err)
			continue
		}

		if err := p.deps.Store.Upsert(rec); err != nil {
			logger.ForStore().Error().Err(err).Str("url", link).Msg("Store write failed, aborting category")
			return products, summary, err
		}
		summary.Stored++
		products = append(products, *rec)
		p.fanOut(rec)
	}

	return products, summary, nil
}

// collect drives the navigator to the listing and returns its product links
func (p *Parser) collect(ctx context.Context, category, subcategory string, max int) ([]string, product.Context, error) {
	nav := p.deps.Navigator
	log := logger.ForNavigator()

	if err := nav.Home(ctx); err != nil {
		return nil, product.Context{}, err
	}
	if err := nav.SelectCategory(ctx, category); err != nil {
		return nil, product.Context{}, err
	}
	if subcategory != "" {
		if err := nav.SelectSubcategory(ctx, subcategory); err != nil {
			log.Warn().Err(err).Str("subcategory", subcategory).Msg("Subcategory unavailable, continuing with category")
			p.logFailure(scopeOf(category, subcategory), err)
		}
	}
	if err := nav.LoadListing(ctx); err != nil {
		return nil, product.Context{}, err
	}

	selCategory, selSubcategory := nav.Category()
	if p.deps.FilterIndex >= 0 {
		key := selCategory
		if selSubcategory != "" {
			key = selSubcategory
		}
		if _, ok := p.deps.Table.Filters[key]; ok {
			if err := nav.ApplyFilter(ctx, key, p.deps.FilterIndex); err != nil {
				log.Warn().Err(err).Str("filter", key).Msg("Filter not applied")
			}
		}
	}

	links, err := nav.CollectProductLinks(ctx, max)
	if err != nil {
		return nil, product.Context{}, err
	}
	return links, product.Context{
		Category:    selCategory,
		Subcategory: selSubcategory,
		Gender:      nav.Gender(),
	}, nil
}

// ParseProduct loads one product page and assembles its record. The page is
// extracted to the end even if ctx is cancelled meanwhile; only PageTimeout
// bounds it. The returned fields are set whenever extraction ran.
func (p *Parser) ParseProduct(ctx context.Context, sourceURL string, pctx product.Context) (*product.Product, extract.Fields, error) {
	pageCtx := context.WithoutCancel(ctx)
	if p.deps.PageTimeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(pageCtx, p.deps.PageTimeout)
		defer cancel()
	}

	a := p.deps.Agent
	if err := a.Navigate(pageCtx, sourceURL); err != nil {
		return nil, extract.Fields{}, apperrors.NewNetwork(sourceURL, "product page load failed", err)
	}
	html, err := a.HTML(pageCtx)
	if err != nil {
		return nil, extract.Fields{}, apperrors.NewNetwork(sourceURL, "product page unreadable", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, extract.Fields{}, fmt.Errorf("failed to parse %s: %w", sourceURL, err)
	}

	fields := p.deps.Registry.ExtractFields(pageCtx, a, doc)
	rec, err := p.deps.Assembler.Assemble(sourceURL, fields, pctx)
	if err != nil {
		return nil, fields, err
	}

	logger.ForProduct(sourceURL).Debug().
		Str("name", rec.Name).
		Str("brand", rec.Brand).
		Str("price_strategy", fields.Prices.Strategy).
		Str("size_tier", fields.Sizes.Tier).
		Msg("Product assembled")
	return rec, fields, nil
}

// fanOut copies a stored record to the mirror and the publisher
func (p *Parser) fanOut(rec *product.Product) {
	if p.deps.Mirror != nil {
		if err := p.deps.Mirror.Upsert(rec); err != nil {
			logger.ForStore().Warn().Err(err).Str("url", rec.SourceURL).Msg("Mirror write failed")
		}
	}
	if p.deps.Publisher != nil {
		if err := publisher.PublishProduct(p.deps.Publisher, rec); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("url", rec.SourceURL).Msg("Publish failed")
		}
	}
}

func (p *Parser) logFailure(scope string, err error) {
	if p.deps.Failures != nil {
		p.deps.Failures.LogError(scope, err)
	}
}

func scopeOf(category, subcategory string) string {
	if subcategory == "" {
		return category
	}
	return category + "/" + subcategory
}
