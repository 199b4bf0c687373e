package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/internal/normalize"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func constant(value string) StrategyFunc {
	return func(*goquery.Document) Result { return Found(value) }
}

func TestFieldFirstValidNotFirstPresent(t *testing.T) {
	field := Field{
		Name: "size",
		Strategies: []Strategy{
			{Name: "stale-label", Fn: constant("Select size")},
			{Name: "option", Fn: constant("M")},
			{Name: "never-reached", Fn: constant("L")},
		},
		Valid: normalize.IsValidSize,
	}

	value, strategy, ok := field.Extract(mustDoc(t, "<html></html>"))
	assert.True(t, ok)
	assert.Equal(t, "M", value)
	assert.Equal(t, "option", strategy)
}

func TestFieldSkipsPanickingStrategy(t *testing.T) {
	field := Field{
		Name: "name",
		Strategies: []Strategy{
			{Name: "boom", Fn: func(*goquery.Document) Result { panic("unexpected markup") }},
			{Name: "nil"},
			{Name: "blank", Fn: constant("   ")},
			{Name: "heading", Fn: func(doc *goquery.Document) Result { return Found(doc.Find("h1").Text()) }},
		},
		Valid: textWithin(300),
	}

	value, strategy, ok := field.Extract(mustDoc(t, "<h1> Wool \n Coat </h1>"))
	assert.True(t, ok)
	assert.Equal(t, "Wool Coat", value)
	assert.Equal(t, "heading", strategy)
}

func TestFieldExhausted(t *testing.T) {
	field := Field{
		Name:       "sku",
		Strategies: []Strategy{{Name: "bad", Fn: constant("#")}},
		Valid:      skuPattern.MatchString,
	}
	_, _, ok := field.Extract(mustDoc(t, "<html></html>"))
	assert.False(t, ok)
}

func TestFoundCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, Result{Value: "a b", Found: true}, Found("  a \n\t b "))
	assert.Equal(t, NotFound, Found(" \n "))
}
