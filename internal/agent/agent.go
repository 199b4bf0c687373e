// Package agent defines the rendering agent boundary: something that loads a
// page, exposes its DOM for queries and accepts clicks and typed input.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a locator matches no usable element
var ErrNotFound = errors.New("agent: element not found")

// By selects how a Locator query is interpreted
type By string

const (
	// ByCSS treats Query as a CSS selector
	ByCSS By = "css"
	// ByText matches elements of Tag whose text contains Query
	ByText By = "text"
)

// Locator addresses elements on the current page
type Locator struct {
	By    By     `json:"by"`
	Query string `json:"query"`
	Tag   string `json:"tag,omitempty"`
}

// CSS returns a CSS locator
func CSS(query string) Locator {
	return Locator{By: ByCSS, Query: query}
}

// Text returns a text-match locator restricted to tag ("" for any element)
func Text(tag, query string) Locator {
	return Locator{By: ByText, Query: query, Tag: tag}
}

func (l Locator) String() string {
	if l.By == ByText {
		tag := l.Tag
		if tag == "" {
			tag = "*"
		}
		return fmt.Sprintf("text(%s ~ %q)", tag, l.Query)
	}
	return fmt.Sprintf("css(%s)", l.Query)
}

// Element is a snapshot of one matched DOM element
type Element struct {
	Text        string            `json:"text"`
	Class       string            `json:"class"`
	ParentClass string            `json:"parentClass"`
	Disabled    bool              `json:"disabled"`
	Visible     bool              `json:"visible"`
	Attrs       map[string]string `json:"attrs"`
}

// Attr returns the named attribute or ""
func (e Element) Attr(name string) string {
	return e.Attrs[name]
}

// Agent is a stateful single-page rendering session. It is not safe to drive
// one Agent from several goroutines; run separate agents instead.
// Every call is bounded by ctx.
type Agent interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	// Click waits until the first element matching loc is visible, then activates it
	Click(ctx context.Context, loc Locator) error
	Type(ctx context.Context, loc Locator, value string) error
	Query(ctx context.Context, loc Locator) ([]Element, error)
	Close() error
}

// TryClick clicks the first locator that succeeds, giving each attempt its own
// timeout. It returns the winning locator, or ErrNotFound when all fail.
func TryClick(ctx context.Context, a Agent, candidates []Locator, perAttempt time.Duration) (Locator, error) {
	for _, loc := range candidates {
		if ctx.Err() != nil {
			return Locator{}, ctx.Err()
		}
		attemptCtx, cancel := context.WithTimeout(ctx, perAttempt)
		err := a.Click(attemptCtx, loc)
		cancel()
		if err == nil {
			return loc, nil
		}
	}
	return Locator{}, ErrNotFound
}
