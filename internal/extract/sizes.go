package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/catalogworker/internal/agent"
	"sjsage522/catalogworker/internal/normalize"
	"sjsage522/catalogworker/internal/selectors"
	"sjsage522/catalogworker/logger"
)

// Size tiers, in escalation order
const (
	TierInteractive = "interactive"
	TierDescription = "description"
	TierStatic      = "static"
)

// SizeResult holds canonical size tokens in discovery order. A token never
// appears in both lists.
type SizeResult struct {
	Available  []string
	OutOfStock []string
	Tier       string
}

// Empty reports whether no size was found
func (r SizeResult) Empty() bool {
	return len(r.Available) == 0 && len(r.OutOfStock) == 0
}

var (
	descriptionSizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsize\s+([\w.,/]+)\s*:`),
		regexp.MustCompile(`(?i)\bour model is wearing:?\s*(?:size\s+)?([\w.,/]+)`),
		regexp.MustCompile(`(?i)\bmodel wearing:?\s*(?:size\s+)?([\w.,/]+)`),
		regexp.MustCompile(`(?i)\bmeasurements for size\s+([\w.,/]+)`),
		regexp.MustCompile(`(?i)\bsize\s+([\w.,/]+)\s*[:\-–]`),
		regexp.MustCompile(`(?i)\bavailable in sizes?\s*[:\-]?\s*([\w\s,/\-–]+)`),
		regexp.MustCompile(`(?i)\bsizes?\s+available\s*[:\-]?\s*([\w\s,/\-–]+)`),
	}

	sizeRange          = regexp.MustCompile(`\b(XXS|XS|S|M|L|XL|XXL|XXXL|[23]XL|\d{2})\s*[-–]\s*(XXS|XS|S|M|L|XL|XXL|XXXL|[23]XL|\d{2})\b`)
	numericSizeMention = regexp.MustCompile(`\b([3-5]\d)\b`)
	rangeDash          = regexp.MustCompile(`\s*[-–]\s*`)
	listSeparator      = regexp.MustCompile(`[,;/]|\s+`)
	unitAfterNumber    = regexp.MustCompile(`(?i)^\s*(?:%|cm|mm|kg|ml|g\b|€|eur\b)`)
)

// SizeExtractor escalates through the interactive, description and static tiers
type SizeExtractor struct {
	table        selectors.ProductSelectors
	probeTimeout time.Duration
}

// NewSizeExtractor creates a size extractor over the given product selectors
func NewSizeExtractor(table selectors.ProductSelectors, probeTimeout time.Duration) *SizeExtractor {
	return &SizeExtractor{table: table, probeTimeout: probeTimeout}
}

// Extract returns the result of the first tier that finds any size. a may be
// nil, which skips the interactive tier.
func (e *SizeExtractor) Extract(ctx context.Context, a agent.Agent, doc *goquery.Document, description string) SizeResult {
	log := logger.ForExtractor(FieldSizes)

	if a != nil {
		if res := e.Interactive(ctx, a); !res.Empty() {
			return res
		}
	}
	if res := FromDescription(description); !res.Empty() {
		return res
	}
	if res := e.Static(doc); !res.Empty() {
		return res
	}

	log.Debug().Msg("No size tier produced a size")
	return SizeResult{}
}

// Interactive opens the size selector on the live page and classifies the revealed options
func (e *SizeExtractor) Interactive(ctx context.Context, a agent.Agent) SizeResult {
	log := logger.ForExtractor(FieldSizes)

	if loc, err := agent.TryClick(ctx, a, e.table.SizeToggles, e.probeTimeout); err == nil {
		log.Debug().Str("locator", loc.String()).Msg("Opened size selector")
	}

	for _, loc := range e.table.SizeOptions {
		if ctx.Err() != nil {
			break
		}
		queryCtx, cancel := context.WithTimeout(ctx, e.probeTimeout)
		elements, err := a.Query(queryCtx, loc)
		cancel()
		if err != nil {
			continue
		}

		c := newSizeCollector()
		for _, el := range elements {
			if !el.Visible {
				continue
			}
			raw := el.Text
			if raw == "" {
				raw = el.Attr("data-size")
			}
			c.add(raw, IsUnavailable(el, e.table.UnavailableClasses))
		}
		if !c.empty() {
			return c.result(TierInteractive)
		}
	}
	return SizeResult{}
}

// FromDescription recovers sizes mentioned in free description text. Ranges
// such as "35-39" or "XS-XL" are expanded against the canonical ladders
// wherever they appear. Text carries no stock signal,
// so every size found here counts as available.
func FromDescription(description string) SizeResult {
	text := normalize.CleanText(description)
	if text == "" {
		return SizeResult{}
	}

	c := newSizeCollector()
	for _, re := range descriptionSizePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			for _, token := range splitSizeList(m[1]) {
				c.add(token, false)
			}
		}
	}

	var consumed [][2]int
	for _, idx := range sizeRange.FindAllStringSubmatchIndex(text, -1) {
		start, end := idx[0], idx[1]
		if partOfNumber(text, idx[2], idx[3]) || partOfNumber(text, idx[4], idx[5]) ||
			unitAfterNumber.MatchString(text[end:]) {
			// a span like "30-40%" is not a size, nor are its endpoints
			consumed = append(consumed, [2]int{start, end})
			continue
		}
		run := normalize.ExpandRange(text[idx[2]:idx[3]] + "-" + text[idx[4]:idx[5]])
		if len(run) < 2 {
			continue
		}
		for _, token := range run {
			c.add(token, false)
		}
		consumed = append(consumed, [2]int{start, end})
	}

	for _, idx := range numericSizeMention.FindAllStringSubmatchIndex(text, -1) {
		start, end := idx[2], idx[3]
		if within(consumed, start) || partOfNumber(text, start, end) || unitAfterNumber.MatchString(text[end:]) {
			continue
		}
		c.add(text[start:end], false)
	}

	return c.result(TierDescription)
}

// Static probes the whole page as a last resort
func (e *SizeExtractor) Static(doc *goquery.Document) SizeResult {
	c := newSizeCollector()
	for _, p := range e.table.StaticSizes {
		doc.Find(p.CSS).Each(func(_ int, s *goquery.Selection) {
			el := agent.ElementFromSelection(s)
			if !el.Visible {
				return
			}
			raw := el.Text
			if p.Attr != "" {
				raw = el.Attr(p.Attr)
			}
			c.add(raw, IsUnavailable(el, e.table.UnavailableClasses))
		})
	}
	return c.result(TierStatic)
}

// IsUnavailable is the disabled-state heuristic: an explicit disabled flag, or
// a class on the element or its parent containing one of the vocabulary words.
// It is an approximation of the site's real CSS taxonomy and can misfire.
func IsUnavailable(el agent.Element, vocabulary []string) bool {
	if el.Disabled {
		return true
	}
	classes := strings.ToLower(el.Class + " " + el.ParentClass)
	for _, word := range vocabulary {
		if word != "" && strings.Contains(classes, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

// splitSizeList splits "XS, S - M and L" style lists, expanding ranges
func splitSizeList(raw string) []string {
	raw = rangeDash.ReplaceAllString(strings.TrimSpace(raw), "-")
	var tokens []string
	for _, part := range listSeparator.Split(raw, -1) {
		part = strings.Trim(part, ".,;:!?()")
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			tokens = append(tokens, normalize.ExpandRange(part)...)
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}

func within(spans [][2]int, pos int) bool {
	for _, span := range spans {
		if pos >= span[0] && pos < span[1] {
			return true
		}
	}
	return false
}

// partOfNumber reports whether text[start:end] is glued to a longer number such as 38,5 or 1.40
func partOfNumber(text string, start, end int) bool {
	if start >= 2 && (text[start-1] == '.' || text[start-1] == ',') && isDigit(text[start-2]) {
		return true
	}
	if end+1 < len(text) && (text[end] == '.' || text[end] == ',') && isDigit(text[end+1]) {
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// sizeCollector keeps available and out-of-stock tokens disjoint; the first classification wins
type sizeCollector struct {
	available *normalize.SizeSet
	out       *normalize.SizeSet
}

func newSizeCollector() *sizeCollector {
	return &sizeCollector{available: normalize.NewSizeSet(), out: normalize.NewSizeSet()}
}

func (c *sizeCollector) add(raw string, unavailable bool) {
	token, ok := normalize.CanonicalSize(raw)
	if !ok || c.available.Contains(token) || c.out.Contains(token) {
		return
	}
	if unavailable {
		c.out.Add(token)
	} else {
		c.available.Add(token)
	}
}

func (c *sizeCollector) empty() bool {
	return c.available.Len() == 0 && c.out.Len() == 0
}

func (c *sizeCollector) result(tier string) SizeResult {
	if c.empty() {
		return SizeResult{}
	}
	return SizeResult{
		Available:  c.available.Tokens(),
		OutOfStock: c.out.Tokens(),
		Tier:       tier,
	}
}
