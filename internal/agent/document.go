package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/catalogworker/helpers"
)

// ErrPageNotFound is returned by MapSource for unknown URLs
var ErrPageNotFound = errors.New("agent: page not found")

// PageSource produces the HTML of a URL
type PageSource interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// MapSource serves canned HTML keyed by absolute URL
type MapSource map[string]string

func (m MapSource) Fetch(ctx context.Context, rawURL string) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	html, ok := m[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, rawURL)
	}
	return strings.NewReader(html), nil
}

// HTTPSource fetches pages over plain HTTP without executing scripts
type HTTPSource struct{}

func (HTTPSource) Fetch(ctx context.Context, rawURL string) (io.Reader, error) {
	return helpers.FetchWithRandomHeaders(ctx, rawURL)
}

// DocumentAgent is an Agent over static HTML snapshots. Clicking an anchor
// follows its href, clicking a submit control follows the enclosing form's
// action and clicking an element with aria-controls reveals its target.
type DocumentAgent struct {
	source PageSource

	mu        sync.Mutex
	url       string
	doc       *goquery.Document
	typed     url.Values
	submitted url.Values
}

// NewDocumentAgent creates an agent reading pages from source
func NewDocumentAgent(source PageSource) *DocumentAgent {
	return &DocumentAgent{
		source: source,
		typed:  url.Values{},
	}
}

func (a *DocumentAgent) Navigate(ctx context.Context, rawURL string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigate(ctx, rawURL)
}

func (a *DocumentAgent) navigate(ctx context.Context, rawURL string) error {
	body, err := a.source.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}
	a.url = rawURL
	a.doc = doc
	a.typed = url.Values{}
	return nil
}

func (a *DocumentAgent) CurrentURL(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.url, ctx.Err()
}

func (a *DocumentAgent) HTML(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.doc == nil {
		return "", errors.New("agent: no page loaded")
	}
	return a.doc.Html()
}

func (a *DocumentAgent) Click(ctx context.Context, loc Locator) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	target := a.firstVisible(loc)
	if target == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, loc)
	}

	if href, ok := target.Attr("href"); ok && goquery.NodeName(target) == "a" {
		return a.navigate(ctx, a.resolve(href))
	}
	if isSubmit(target) {
		form := target.Closest("form")
		if form.Length() > 0 {
			action, _ := form.Attr("action")
			a.submitted = a.typed
			return a.navigate(ctx, a.resolve(action))
		}
	}
	if id, ok := target.Attr("aria-controls"); ok {
		reveal(a.doc.Find("#" + id))
	}
	return nil
}

func (a *DocumentAgent) Type(ctx context.Context, loc Locator, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	target := a.firstVisible(loc)
	if target == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	switch goquery.NodeName(target) {
	case "input", "textarea":
	default:
		return fmt.Errorf("agent: cannot type into <%s>", goquery.NodeName(target))
	}

	target.SetAttr("value", value)
	name, _ := target.Attr("name")
	if name == "" {
		name, _ = target.Attr("id")
	}
	a.typed.Set(name, value)
	return nil
}

func (a *DocumentAgent) Query(ctx context.Context, loc Locator) ([]Element, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sel := a.find(loc)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}

	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, ElementFromSelection(s))
	})
	return elements, nil
}

// Close is a no-op
func (a *DocumentAgent) Close() error {
	return nil
}

// Submitted returns the values typed into the last submitted form
func (a *DocumentAgent) Submitted() url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitted
}

func (a *DocumentAgent) find(loc Locator) *goquery.Selection {
	if a.doc == nil {
		return &goquery.Selection{}
	}
	if loc.By != ByText {
		return a.doc.Find(loc.Query)
	}

	if loc.Tag != "" {
		return a.doc.Find(loc.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(helpers.CollapseSpace(s.Text()), loc.Query)
		})
	}
	// Without a tag only the innermost matching elements count
	return a.doc.Find("body *").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(helpers.CollapseSpace(s.Text()), loc.Query) {
			return false
		}
		inner := s.Children().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return strings.Contains(helpers.CollapseSpace(c.Text()), loc.Query)
		})
		return inner.Length() == 0
	})
}

func (a *DocumentAgent) firstVisible(loc Locator) *goquery.Selection {
	var found *goquery.Selection
	a.find(loc).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isVisible(s) {
			found = s
			return false
		}
		return true
	})
	return found
}

func (a *DocumentAgent) resolve(ref string) string {
	base, err := url.Parse(a.url)
	if err != nil {
		return ref
	}
	target, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

// ElementFromSelection snapshots the first node of s
func ElementFromSelection(s *goquery.Selection) Element {
	attrs := make(map[string]string)
	if node := s.Get(0); node != nil {
		for _, attr := range node.Attr {
			attrs[attr.Key] = attr.Val
		}
	}
	class, _ := s.Attr("class")
	parentClass, _ := s.Parent().Attr("class")
	_, disabled := s.Attr("disabled")

	text := helpers.CollapseSpace(s.Text())
	if text == "" {
		text = attrs["value"]
	}

	return Element{
		Text:        text,
		Class:       class,
		ParentClass: parentClass,
		Disabled:    disabled || attrs["aria-disabled"] == "true",
		Visible:     isVisible(s),
		Attrs:       attrs,
	}
}

func isSubmit(s *goquery.Selection) bool {
	typ, _ := s.Attr("type")
	switch goquery.NodeName(s) {
	case "button":
		return typ == "" || typ == "submit"
	case "input":
		return typ == "submit"
	}
	return false
}

// isVisible reports whether neither s nor an ancestor is hidden
func isVisible(s *goquery.Selection) bool {
	if typ, _ := s.Attr("type"); goquery.NodeName(s) == "input" && typ == "hidden" {
		return false
	}
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		if _, hidden := cur.Attr("hidden"); hidden {
			return false
		}
		style, _ := cur.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func reveal(s *goquery.Selection) {
	s.RemoveAttr("hidden")
	if style, ok := s.Attr("style"); ok {
		style = strings.ReplaceAll(style, "display:none", "")
		style = strings.ReplaceAll(style, "display: none", "")
		s.SetAttr("style", style)
	}
}
