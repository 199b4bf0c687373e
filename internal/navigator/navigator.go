// Package navigator drives an authenticated session from the home page down to
// a list of product URLs.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/internal/agent"
	"sjsage522/catalogworker/internal/selectors"
	"sjsage522/catalogworker/logger"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

// State is a navigator position
type State int

const (
	StateIdle State = iota
	StateHome
	StateCategorySelected
	StateSubcategorySelected
	StateListingLoaded
	StateProductLinksCollected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateHome:
		return "Home"
	case StateCategorySelected:
		return "CategorySelected"
	case StateSubcategorySelected:
		return "SubcategorySelected"
	case StateListingLoaded:
		return "ListingLoaded"
	case StateProductLinksCollected:
		return "ProductLinksCollected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const defaultProbeTimeout = 3 * time.Second

// Options configure waits and URL resolution. A zero ProbeTimeout falls back
// to three seconds.
type Options struct {
	HomeURL      string
	SiteRoot     string
	ProbeTimeout time.Duration
	SettleDelay  time.Duration
}

// Navigator is a state machine over one agent session. It is not safe for
// concurrent use.
type Navigator struct {
	agent agent.Agent
	table *selectors.Table
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error

	state       State
	category    string
	subcategory string
}

// New creates a navigator in the Idle state
func New(a agent.Agent, table *selectors.Table, opts Options) *Navigator {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	return &Navigator{
		agent: a,
		table: table,
		opts:  opts,
		sleep: helpers.SleepContext,
		state: StateIdle,
	}
}

// State returns the current state
func (n *Navigator) State() State {
	return n.state
}

// Category returns the selected category and subcategory ("" when not selected)
func (n *Navigator) Category() (string, string) {
	return n.category, n.subcategory
}

// Gender returns the gender configured for the selected category
func (n *Navigator) Gender() string {
	return n.table.Categories[n.category].Gender
}

// Home loads the home page. It is valid from any state.
func (n *Navigator) Home(ctx context.Context) error {
	if err := n.agent.Navigate(ctx, n.opts.HomeURL); err != nil {
		return apperrors.NewNavigation("home", "home page unreachable", err)
	}
	n.state = StateHome
	n.category, n.subcategory = "", ""
	return nil
}

// SelectCategory clicks the first working candidate for category.
// Exhausting the candidates is a navigation failure and the state stays Home.
func (n *Navigator) SelectCategory(ctx context.Context, category string) error {
	if err := n.expect("select category", StateHome); err != nil {
		return err
	}
	cat, ok := n.table.Categories[category]
	if !ok {
		return apperrors.NewNavigation(category, "unknown category", nil)
	}
	if err := n.clickCandidate(ctx, category, cat.Locators); err != nil {
		return err
	}
	n.state = StateCategorySelected
	n.category = category
	return nil
}

// SelectSubcategory clicks the first working candidate for subcategory. On
// failure the navigator stays on the category so the caller can continue there.
func (n *Navigator) SelectSubcategory(ctx context.Context, subcategory string) error {
	if err := n.expect("select subcategory", StateCategorySelected); err != nil {
		return err
	}
	candidates, ok := n.table.Subcategories[subcategory]
	if !ok {
		return apperrors.NewNavigation(subcategory, "unknown subcategory", nil)
	}
	if err := n.clickCandidate(ctx, subcategory, candidates); err != nil {
		return err
	}
	n.state = StateSubcategorySelected
	n.subcategory = subcategory
	return nil
}

// LoadListing waits for the listing page of the current selection
func (n *Navigator) LoadListing(ctx context.Context) error {
	if err := n.expect("load listing", StateCategorySelected, StateSubcategorySelected); err != nil {
		return err
	}
	if err := n.sleep(ctx, n.opts.SettleDelay); err != nil {
		return apperrors.NewNavigation(n.scope(), "listing did not settle", err)
	}
	n.state = StateListingLoaded
	return nil
}

// ApplyFilter clicks the filter at index from the filter list configured for key
func (n *Navigator) ApplyFilter(ctx context.Context, key string, index int) error {
	if err := n.expect("apply filter", StateListingLoaded); err != nil {
		return err
	}
	filters := n.table.Filters[key]
	if index < 0 || index >= len(filters) {
		return apperrors.NewNavigation(key, fmt.Sprintf("no filter %d (%d configured)", index, len(filters)), nil)
	}
	return n.clickCandidate(ctx, key, filters[index:index+1])
}

// CollectProductLinks returns up to max absolute product URLs from the first
// link locator that matches anything, de-duplicated in page order
func (n *Navigator) CollectProductLinks(ctx context.Context, max int) ([]string, error) {
	if err := n.expect("collect product links", StateListingLoaded, StateProductLinksCollected); err != nil {
		return nil, err
	}
	log := logger.ForNavigator()

	for _, loc := range n.table.ProductLinks {
		probeCtx, cancel := context.WithTimeout(ctx, n.opts.ProbeTimeout)
		elements, err := n.agent.Query(probeCtx, loc)
		cancel()
		if err != nil {
			if !errors.Is(err, agent.ErrNotFound) {
				log.Debug().Err(err).Str("locator", loc.String()).Msg("Link probe failed")
			}
			continue
		}

		links := n.normalizeLinks(elements, max)
		if len(links) == 0 {
			continue
		}
		log.Info().
			Str("scope", n.scope()).
			Str("locator", loc.String()).
			Int("count", len(links)).
			Msg("Product links collected")
		n.state = StateProductLinksCollected
		return links, nil
	}

	return nil, apperrors.NewNavigation(n.scope(), "no product links found", nil)
}

func (n *Navigator) normalizeLinks(elements []agent.Element, max int) []string {
	seen := make(map[string]bool)
	var links []string
	for _, el := range elements {
		if max > 0 && len(links) >= max {
			break
		}
		href := strings.TrimSpace(el.Attr("href"))
		if href == "" {
			continue
		}
		abs, ok := resolve(n.opts.SiteRoot, href)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		links = append(links, abs)
	}
	return links
}

func (n *Navigator) clickCandidate(ctx context.Context, scope string, candidates []agent.Locator) error {
	loc, err := agent.TryClick(ctx, n.agent, candidates, n.opts.ProbeTimeout)
	if err != nil {
		return apperrors.NewNavigation(scope, fmt.Sprintf("%d candidates exhausted", len(candidates)), err)
	}
	logger.ForNavigator().Debug().Str("scope", scope).Str("locator", loc.String()).Msg("Clicked")

	if err := n.sleep(ctx, n.opts.SettleDelay); err != nil {
		return apperrors.NewNavigation(scope, "settle interrupted", err)
	}
	return nil
}

func (n *Navigator) expect(op string, allowed ...State) error {
	for _, s := range allowed {
		if n.state == s {
			return nil
		}
	}
	return apperrors.NewNavigation(n.scope(), fmt.Sprintf("cannot %s in state %s", op, n.state), nil)
}

func (n *Navigator) scope() string {
	if n.subcategory != "" {
		return n.category + "/" + n.subcategory
	}
	if n.category != "" {
		return n.category
	}
	return "home"
}

// resolve makes href absolute against root and keeps only http(s) URLs
func resolve(root, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	base, err := url.Parse(root)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}
