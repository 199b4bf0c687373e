// Package session establishes an authenticated rendering agent session.
package session

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
	"sjsage522/catalogworker/services/cache"
)

// Credentials are the account used to log in
type Credentials struct {
	Email    string
	Password string
}

// Options configure the login flow
type Options struct {
	Site            string
	EntryURL        string
	LoginURL        string
	AuthDomain      string
	LoginHostPrefix string

	LoginTimeout   time.Duration
	ProbeTimeout   time.Duration
	ConsentTimeout time.Duration
	SettleDelay    time.Duration

	// BlockTime is how long further attempts fail fast after a failed login
	BlockTime time.Duration
}

// Session is an agent that has passed the login check
type Session struct {
	Agent         agent.Agent
	URL           string
	Path          string
	EstablishedAt time.Time
}

const (
	pathPrimary  = "primary"
	pathFallback = "fallback"
)

// Controller owns the consent and login lifecycle
type Controller struct {
	opts     Options
	locators selectors.SessionLocators
	cache    cache.CacheService
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewController creates a controller. cache may be nil, which disables the login block.
// Zero timeouts fall back to the defaults used by the worker configuration.
func NewController(opts Options, locators selectors.SessionLocators, c cache.CacheService) *Controller {
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = 60 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 3 * time.Second
	}
	if opts.ConsentTimeout <= 0 {
		opts.ConsentTimeout = 2 * time.Second
	}
	return &Controller{
		opts:     opts,
		locators: locators,
		cache:    c,
		sleep:    helpers.SleepContext,
	}
}

// Establish logs in through the login affordance on the entry page, or through
// the login URL when that path fails. It fails with an auth error when neither
// path ends on an authenticated URL within LoginTimeout. It never retries.
func (c *Controller) Establish(ctx context.Context, a agent.Agent, creds Credentials) (*Session, error) {
	log := logger.ForSession()

	if creds.Email == "" || creds.Password == "" {
		return nil, apperrors.NewAuth(c.opts.Site, "missing credentials", nil)
	}
	if c.isBlocked(creds) {
		return nil, apperrors.NewAuth(c.opts.Site, "login blocked after a recent failure",
			apperrors.NewRateLimit(c.opts.Site, c.opts.BlockTime))
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.LoginTimeout)
	defer cancel()

	if err := a.Navigate(ctx, c.opts.EntryURL); err != nil {
		return nil, c.fail(creds, "entry page unreachable", err)
	}
	c.dismissConsent(ctx, a)

	var lastErr error
	for _, path := range []string{pathPrimary, pathFallback} {
		current, err := c.attempt(ctx, a, creds, path)
		if err == nil {
			log.Info().Str("path", path).Str("url", current).Msg("Session established")
			return &Session{Agent: a, URL: current, Path: path, EstablishedAt: time.Now()}, nil
		}
		log.Warn().Err(err).Str("path", path).Msg("Login path failed")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, c.fail(creds, "no login path reached an authenticated page", lastErr)
}

func (c *Controller) attempt(ctx context.Context, a agent.Agent, creds Credentials, path string) (string, error) {
	switch path {
	case pathPrimary:
		if _, err := agent.TryClick(ctx, a, c.locators.LoginAffordance, c.opts.ProbeTimeout); err != nil {
			return "", fmt.Errorf("login affordance: %w", err)
		}
	case pathFallback:
		if err := a.Navigate(ctx, c.opts.LoginURL); err != nil {
			return "", fmt.Errorf("login url: %w", err)
		}
	}

	if err := c.typeInto(ctx, a, c.locators.Email, creds.Email); err != nil {
		return "", fmt.Errorf("email field: %w", err)
	}
	if err := c.typeInto(ctx, a, c.locators.Password, creds.Password); err != nil {
		return "", fmt.Errorf("password field: %w", err)
	}
	if _, err := agent.TryClick(ctx, a, c.locators.Submit, c.opts.ProbeTimeout); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	if err := c.sleep(ctx, c.opts.SettleDelay); err != nil {
		return "", err
	}

	current, err := a.CurrentURL(ctx)
	if err != nil {
		return "", err
	}
	if !c.Authenticated(current) {
		return "", fmt.Errorf("landed on %s", current)
	}
	return current, nil
}

// Authenticated reports whether rawURL belongs to the authenticated domain and
// is not on the login host
func (c *Controller) Authenticated(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain := strings.ToLower(c.opts.AuthDomain)
	if host != domain && !strings.HasSuffix(host, "."+domain) {
		return false
	}
	return !strings.HasPrefix(host, strings.ToLower(c.opts.LoginHostPrefix))
}

// dismissConsent clicks the first consent control that appears. Absence is fine.
func (c *Controller) dismissConsent(ctx context.Context, a agent.Agent) {
	loc, err := agent.TryClick(ctx, a, c.locators.Consent, c.opts.ConsentTimeout)
	if err != nil {
		logger.ForSession().Debug().Msg("No consent dialog dismissed")
		return
	}
	logger.ForSession().Debug().Str("locator", loc.String()).Msg("Consent dismissed")
}

func (c *Controller) typeInto(ctx context.Context, a agent.Agent, candidates []agent.Locator, value string) error {
	for _, loc := range candidates {
		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
		err := a.Type(attemptCtx, loc, value)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return agent.ErrNotFound
}

func (c *Controller) isBlocked(creds Credentials) bool {
	if c.cache == nil {
		return false
	}
	_, err := c.cache.Get(cache.LoginBlockKey(c.opts.Site, creds.Email))
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		logger.ForSession().Warn().Err(err).Msg("Login block lookup failed")
	}
	return err == nil
}

func (c *Controller) fail(creds Credentials, message string, err error) error {
	if c.cache != nil && c.opts.BlockTime > 0 {
		key := cache.LoginBlockKey(c.opts.Site, creds.Email)
		if setErr := c.cache.Set(key, []byte(time.Now().UTC().Format(time.RFC3339)), c.opts.BlockTime); setErr != nil {
			logger.ForSession().Warn().Err(setErr).Msg("Failed to store login block")
		}
	}
	return apperrors.NewAuth(c.opts.Site, message, err)
}
