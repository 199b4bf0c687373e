// Package extract reads product fields out of rendered pages. Every field has
// an ordered list of independent strategies; the first value that passes the
// field's validity check wins.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/internal/selectors"
	"sjsage522/catalogworker/logger"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

// Result is what a strategy produced: a raw value or nothing
type Result struct {
	Value string
	Found bool
}

// Found wraps a raw value; blank values count as not found
func Found(value string) Result {
	value = helpers.CollapseSpace(value)
	return Result{Value: value, Found: value != ""}
}

// NotFound is the empty result
var NotFound = Result{}

// StrategyFunc reads one raw value from a document
type StrategyFunc func(doc *goquery.Document) Result

// Strategy is one named way of locating a field
type Strategy struct {
	Name string
	Fn   StrategyFunc
}

// Validator decides whether a raw value is acceptable for a field
type Validator func(value string) bool

// Field is an ordered strategy list plus the validity check for one logical field
type Field struct {
	Name       string
	Strategies []Strategy
	Valid      Validator
}

// Extract runs the strategies in order and returns the first valid value and
// the name of the strategy that produced it.
func (f Field) Extract(doc *goquery.Document) (value, strategy string, ok bool) {
	log := logger.ForExtractor(f.Name)
	for _, s := range f.Strategies {
		res := apply(f.Name, s, doc)
		if !res.Found {
			continue
		}
		if f.Valid != nil && !f.Valid(res.Value) {
			if logger.IsDebugEnabled() {
				log.Debug().Str("strategy", s.Name).Str("value", res.Value).Msg("Rejected invalid value")
			}
			continue
		}
		return res.Value, s.Name, true
	}

	log.Debug().Err(apperrors.NewStrategyExhausted(f.Name, len(f.Strategies))).Msg("Field absent")
	return "", "", false
}

// apply runs one strategy; a panic inside it counts as not found
func apply(field string, s Strategy, doc *goquery.Document) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.ForExtractor(field).Warn().
				Str("strategy", s.Name).
				Interface("panic", r).
				Msg("Strategy panicked")
			res = NotFound
		}
	}()
	if s.Fn == nil {
		return NotFound
	}
	return s.Fn(doc)
}

// probeStrategies turns selector probes into text/attribute strategies
func probeStrategies(probes []selectors.Probe) []Strategy {
	strategies := make([]Strategy, 0, len(probes))
	for _, p := range probes {
		p := p
		name := "css:" + p.CSS
		if p.Attr != "" {
			name += "@" + p.Attr
		}
		strategies = append(strategies, Strategy{
			Name: name,
			Fn: func(doc *goquery.Document) Result {
				return probeFirst(doc.Selection, p)
			},
		})
	}
	return strategies
}

// probeFirst reads the first element matching p that yields a non-blank value
func probeFirst(root *goquery.Selection, p selectors.Probe) Result {
	res := NotFound
	root.Find(p.CSS).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		res = readProbe(s, p)
		return !res.Found
	})
	return res
}

func readProbe(s *goquery.Selection, p selectors.Probe) Result {
	if p.Attr != "" {
		v, _ := s.Attr(p.Attr)
		return Found(v)
	}
	return Found(s.Text())
}

func jsonLDStrategy(name string, read func(p *jsonLDProduct) string) Strategy {
	return Strategy{
		Name: "jsonld:" + name,
		Fn: func(doc *goquery.Document) Result {
			p, ok := findJSONLDProduct(doc)
			if !ok {
				return NotFound
			}
			return Found(read(p))
		},
	}
}

func metaStrategy(key string) Strategy {
	return Strategy{
		Name: "meta:" + key,
		Fn: func(doc *goquery.Document) Result {
			sel := doc.Find(`meta[property="` + key + `"], meta[name="` + key + `"]`).First()
			v, _ := sel.Attr("content")
			return Found(v)
		},
	}
}

// textWithin returns a validator accepting non-blank text up to max runes
func textWithin(max int) Validator {
	return func(value string) bool {
		value = strings.TrimSpace(value)
		return value != "" && len([]rune(value)) <= max
	}
}
