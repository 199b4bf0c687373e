package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	homeURL  = "https://shop.test/"
	loginURL = "https://login.shop.test/form"
)

func newTestAgent() *DocumentAgent {
	return NewDocumentAgent(MapSource{
		homeURL: `<html><body>
			<nav><a class="nav-women" href="/women">Women</a><a href="/men"><span>Men</span></a></nav>
			<a id="hidden-link" href="/secret" style="display: none">Secret</a>
			<div hidden><a class="buried" href="/buried">Buried</a></div>
			<button class="size-toggle" aria-controls="size-list">Choose size</button>
			<ul id="size-list" hidden>
				<li class="size-option">S</li>
				<li class="size-option disabled">M</li>
				<li><button class="size-option" disabled>L</button></li>
			</ul>
			<form action="https://login.shop.test/submit">
				<input type="email" name="email">
				<input type="password" name="password">
				<input type="hidden" name="csrf" value="x">
				<button type="submit">Log in</button>
			</form>
		</body></html>`,
		"https://shop.test/women":           `<html><body><h1>Women</h1></body></html>`,
		"https://shop.test/men":             `<html><body><h1>Men</h1></body></html>`,
		"https://login.shop.test/submit":    `<html><body>Welcome</body></html>`,
		loginURL:                            `<html><body></body></html>`,
	})
}

func TestDocumentAgentNavigate(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent()

	err := a.Navigate(ctx, "https://shop.test/missing")
	assert.True(t, errors.Is(err, ErrPageNotFound))

	require.NoError(t, a.Navigate(ctx, homeURL))
	current, err := a.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, homeURL, current)

	html, err := a.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "nav-women")
}

func TestDocumentAgentClickFollowsLinks(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent()
	require.NoError(t, a.Navigate(ctx, homeURL))

	require.NoError(t, a.Click(ctx, CSS("a.nav-women")))
	current, _ := a.CurrentURL(ctx)
	assert.Equal(t, "https://shop.test/women", current)

	require.NoError(t, a.Navigate(ctx, homeURL))
	require.NoError(t, a.Click(ctx, Text("a", "Men")))
	current, _ = a.CurrentURL(ctx)
	assert.Equal(t, "https://shop.test/men", current)
}

func TestDocumentAgentHiddenElementsAreNotClickable(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent()
	require.NoError(t, a.Navigate(ctx, homeURL))

	assert.ErrorIs(t, a.Click(ctx, CSS("#hidden-link")), ErrNotFound)
	assert.ErrorIs(t, a.Click(ctx, CSS("a.buried")), ErrNotFound)
	assert.ErrorIs(t, a.Click(ctx, CSS(".does-not-exist")), ErrNotFound)
}

func TestDocumentAgentRevealAndQuery(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent()
	require.NoError(t, a.Navigate(ctx, homeURL))

	before, err := a.Query(ctx, CSS(".size-option"))
	require.NoError(t, err)
	require.Len(t, before, 3)
	assert.False(t, before[0].Visible)

	require.NoError(t, a.Click(ctx, CSS(".size-toggle")))

	options, err := a.Query(ctx, CSS(".size-option"))
	require.NoError(t, err)
	require.Len(t, options, 3)

	assert.Equal(t, "S", options[0].Text)
	assert.True(t, options[0].Visible)
	assert.False(t, options[0].Disabled)

	assert.Equal(t, "size-option disabled", options[1].Class)

	assert.Equal(t, "L", options[2].Text)
	assert.True(t, options[2].Disabled)

	_, err = a.Query(ctx, CSS(".nothing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentAgentTypeAndSubmit(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent()
	require.NoError(t, a.Navigate(ctx, homeURL))

	require.NoError(t, a.Type(ctx, CSS("input[type=email]"), "buyer@example.com"))
	require.NoError(t, a.Type(ctx, CSS("input[name=password]"), "secret"))
	assert.Error(t, a.Type(ctx, CSS("input[name=csrf]"), "x"))
	assert.Error(t, a.Type(ctx, CSS("nav"), "x"))

	require.NoError(t, a.Click(ctx, Text("button", "Log in")))

	current, _ := a.CurrentURL(ctx)
	assert.Equal(t, "https://login.shop.test/submit", current)
	assert.Equal(t, "buyer@example.com", a.Submitted().Get("email"))
	assert.Equal(t, "secret", a.Submitted().Get("password"))
}

func TestDocumentAgentTextLocatorWithoutTag(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent()
	require.NoError(t, a.Navigate(ctx, homeURL))

	elements, err := a.Query(ctx, Text("", "Choose size"))
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "size-toggle", elements[0].Class)
}

func TestTryClick(t *testing.T) {
	ctx := context.Background()
	a := newTestAgent()
	require.NoError(t, a.Navigate(ctx, homeURL))

	winner, err := TryClick(ctx, a, []Locator{
		CSS("#nope"),
		CSS("#hidden-link"),
		Text("a", "Women"),
	}, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, Text("a", "Women"), winner)

	require.NoError(t, a.Navigate(ctx, homeURL))
	_, err = TryClick(ctx, a, []Locator{CSS("#nope")}, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = TryClick(cancelled, a, []Locator{Text("a", "Women")}, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
