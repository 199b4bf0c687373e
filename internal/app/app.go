// Package app wires configuration into a ready-to-run parser. It is shared by
// the worker process and the operator CLI.
package app

import (
	"context"

	"sjsage522/catalogworker/config"
	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/internal/agent"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/internal/navigator"
	"sjsage522/catalogworker/internal/parser"
	"sjsage522/catalogworker/internal/product"
	"sjsage522/catalogworker/internal/selectors"
	"sjsage522/catalogworker/internal/session"
	"sjsage522/catalogworker/internal/store"
	"sjsage522/catalogworker/logger"
	apperrors "sjsage522/catalogworker/pkg/errors"
	"sjsage522/catalogworker/services/cache"
	"sjsage522/catalogworker/services/publisher"
)

// Services holds all the initialized services
type Services struct {
	Config    *config.Config
	Table     *selectors.Table
	Agent     agent.Agent
	Store     *store.FileStore
	Mirror    *store.Mirror
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Failures  *helpers.FailureLog
	Parser    *parser.Parser
}

// Cleanup closes every service that holds a connection or a browser
func (s *Services) Cleanup() {
	if s.Agent != nil {
		if err := s.Agent.Close(); err != nil {
			logger.Warn("Failed to close agent: %v", err)
		}
	}
	if s.Mirror != nil {
		s.Mirror.Close()
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// LoadTable loads the selector table named by cfg, or the defaults
func LoadTable(cfg *config.Config) (*selectors.Table, error) {
	table, err := selectors.Load(cfg.SelectorsPath)
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to load selector table", err)
	}
	return table, nil
}

// NewAgent creates the rendering agent configured by cfg
func NewAgent(cfg *config.Config) (agent.Agent, error) {
	switch cfg.AgentKind {
	case "http":
		return agent.NewDocumentAgent(agent.HTTPSource{}), nil
	default:
		return agent.NewChrome(agent.ChromeOptions{
			Headless:     cfg.ChromeHeadless,
			UserAgent:    cfg.ChromeUserAgent,
			WindowWidth:  1400,
			WindowHeight: 900,
		})
	}
}

// InitializeServices creates every service and the parser. The agent is
// created through newAgent so callers can substitute it.
func InitializeServices(ctx context.Context, cfg *config.Config, newAgent func(*config.Config) (agent.Agent, error)) (*Services, error) {
	table, err := LoadTable(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Selector table %s loaded", table.Version)

	s := &Services{
		Config:   cfg,
		Table:    table,
		Store:    store.NewFileStore(cfg.StorePath),
		Failures: helpers.NewFailureLog(cfg.FailureLogPath),
	}

	if cfg.MemcacheAddr != "" {
		s.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	} else {
		s.Cache = cache.NewMemoryCache()
	}

	if cfg.RedisAddr != "" {
		s.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Publishing to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.MirrorDriver != "" {
		mirror, err := store.OpenMirror(cfg.MirrorDriver, cfg.MirrorDSN)
		if err != nil {
			s.Cleanup()
			return nil, err
		}
		s.Mirror = mirror
	}

	a, err := newAgent(cfg)
	if err != nil {
		s.Cleanup()
		return nil, apperrors.NewConfiguration("failed to start rendering agent", err)
	}
	s.Agent = a

	deps := parser.Deps{
		Agent: a,
		Table: table,
		Navigator: navigator.New(a, table, navigator.Options{
			HomeURL:      cfg.SiteRoot,
			SiteRoot:     cfg.SiteRoot,
			ProbeTimeout: cfg.ProbeTimeout,
			SettleDelay:  cfg.SettleDelay,
		}),
		Registry: extract.NewRegistry(table.Product, extract.Options{
			SiteRoot:     cfg.SiteRoot,
			Currency:     cfg.DefaultCurrency,
			MaxImages:    cfg.MaxImages,
			ProbeTimeout: cfg.ProbeTimeout,
		}),
		Assembler: product.NewAssembler(cfg.SiteIdentifier, cfg.SKUPrefix, cfg.DefaultCurrency, cfg.MaxImages),
		Store:     s.Store,
		Publisher: s.Publisher,
		Failures:  s.Failures,
		Session: session.NewController(session.Options{
			Site:            cfg.SiteIdentifier,
			EntryURL:        cfg.EntryURL,
			LoginURL:        cfg.LoginURL,
			AuthDomain:      cfg.AuthDomain,
			LoginHostPrefix: cfg.LoginHostPrefix,
			LoginTimeout:    cfg.LoginTimeout,
			ProbeTimeout:    cfg.ProbeTimeout,
			ConsentTimeout:  cfg.ConsentTimeout,
			SettleDelay:     cfg.SettleDelay,
			BlockTime:       cfg.LoginBlockTime,
		}, table.Session, s.Cache),
		Credentials:     session.Credentials{Email: cfg.Email, Password: cfg.Password},
		ProductInterval: cfg.ProductInterval,
		PageTimeout:     cfg.PageTimeout,
		FilterIndex:     cfg.ListingFilterIndex,
	}
	if s.Mirror != nil {
		deps.Mirror = s.Mirror
	}
	s.Parser = parser.New(deps)

	return s, nil
}
