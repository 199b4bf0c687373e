package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Masks the most common automation fingerprint on every new document
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// Returns a snapshot of every element matched by a CSS selector or an XPath expression
const queryScript = `(function(mode, query) {
  var nodes = [];
  if (mode === "css") {
    nodes = Array.from(document.querySelectorAll(query));
  } else {
    var snap = document.evaluate(query, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
    for (var i = 0; i < snap.snapshotLength; i++) nodes.push(snap.snapshotItem(i));
  }
  return nodes.map(function(el) {
    var attrs = {};
    for (var i = 0; i < el.attributes.length; i++) attrs[el.attributes[i].name] = el.attributes[i].value;
    var style = window.getComputedStyle(el);
    var parent = el.parentElement;
    return {
      text: (el.innerText || el.textContent || "").trim(),
      class: el.getAttribute("class") || "",
      parentClass: parent ? (parent.getAttribute("class") || "") : "",
      disabled: el.hasAttribute("disabled") || el.getAttribute("aria-disabled") === "true",
      visible: !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length) && style.visibility !== "hidden" && style.display !== "none",
      attrs: attrs
    };
  });
})(%s, %s)`

// ChromeOptions configures the browser process
type ChromeOptions struct {
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
}

// Chrome drives a local Chrome instance through the DevTools protocol
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChrome starts a browser with basic stealth flags and opens one tab
func NewChrome(opts ChromeOptions) (*Chrome, error) {
	if opts.WindowWidth == 0 || opts.WindowHeight == 0 {
		opts.WindowWidth, opts.WindowHeight = 1920, 1080
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	}))
	if err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &Chrome{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// run executes actions on the tab, bounded by the caller's deadline and cancellation
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(c.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var location string
	err := c.run(ctx, chromedp.Location(&location))
	return location, err
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Click(ctx context.Context, loc Locator) error {
	sel, opt := selectorFor(loc)
	return c.run(ctx,
		chromedp.WaitVisible(sel, opt),
		chromedp.Click(sel, opt, chromedp.NodeVisible),
	)
}

func (c *Chrome) Type(ctx context.Context, loc Locator, value string) error {
	sel, opt := selectorFor(loc)
	return c.run(ctx,
		chromedp.WaitVisible(sel, opt),
		chromedp.Clear(sel, opt),
		chromedp.SendKeys(sel, value, opt),
	)
}

func (c *Chrome) Query(ctx context.Context, loc Locator) ([]Element, error) {
	script, err := buildQueryScript(loc)
	if err != nil {
		return nil, err
	}
	var elements []Element
	if err := c.run(ctx, chromedp.Evaluate(script, &elements)); err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, ErrNotFound
	}
	return elements, nil
}

// Close shuts down the tab and the browser process
func (c *Chrome) Close() error {
	c.cancel()
	c.allocCancel()
	return nil
}

func selectorFor(loc Locator) (string, chromedp.QueryOption) {
	if loc.By == ByText {
		return textXPath(loc), chromedp.BySearch
	}
	return loc.Query, chromedp.ByQuery
}

func buildQueryScript(loc Locator) (string, error) {
	mode, query := "css", loc.Query
	if loc.By == ByText {
		mode, query = "xpath", textXPath(loc)
	}
	modeJSON, err := json.Marshal(mode)
	if err != nil {
		return "", err
	}
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(queryScript, modeJSON, queryJSON), nil
}

// textXPath builds an XPath matching loc.Tag elements whose normalised text contains loc.Query
func textXPath(loc Locator) string {
	tag := loc.Tag
	if tag == "" {
		tag = "*"
	}
	return fmt.Sprintf("//%s[contains(normalize-space(.), %s)]", tag, xpathLiteral(loc.Query))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
