package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Job is one category traversal the worker performs per run
type Job struct {
	Category    string
	Subcategory string
	MaxProducts int
}

// Config represents the application configuration
type Config struct {
	// Credentials
	Email    string
	Password string

	// Site topology
	SiteIdentifier  string
	SKUPrefix       string
	SiteRoot        string
	EntryURL        string
	LoginURL        string
	AuthDomain      string
	LoginHostPrefix string
	DefaultCurrency string

	// Storage
	StorePath    string
	MirrorDriver string
	MirrorDSN    string

	// Selector table override (json5)
	SelectorsPath string

	// Extraction
	Jobs               []Job
	MaxProducts        int
	MaxImages          int
	ListingFilterIndex int

	// Bounded waits
	LoginTimeout    time.Duration
	ProbeTimeout    time.Duration
	ConsentTimeout  time.Duration
	SettleDelay     time.Duration
	PageTimeout     time.Duration
	ProductInterval time.Duration

	// Rendering agent: "chrome" or "http" (static pages, no scripts)
	AgentKind       string
	ChromeHeadless  bool
	ChromeUserAgent string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr   string
	LoginBlockTime time.Duration

	// Worker
	CrawlInterval  time.Duration
	FailureLogPath string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	maxProducts := getEnvInt("MAX_PRODUCTS", 10)

	return &Config{
		Email:                os.Getenv("CATALOG_EMAIL"),
		Password:             os.Getenv("CATALOG_PASSWORD"),
		SiteIdentifier:       getEnv("SITE_IDENTIFIER", "BestSecret"),
		SKUPrefix:            getEnv("SKU_PREFIX", "BS"),
		SiteRoot:             getEnv("SITE_ROOT", "https://www.bestsecret.com"),
		EntryURL:             getEnv("ENTRY_URL", "https://www.bestsecret.com/entrance/index.htm"),
		LoginURL:             getEnv("LOGIN_URL", "https://login.bestsecret.com"),
		AuthDomain:           getEnv("AUTH_DOMAIN", "bestsecret.com"),
		LoginHostPrefix:      getEnv("LOGIN_HOST_PREFIX", "login."),
		DefaultCurrency:      getEnv("DEFAULT_CURRENCY", "EUR"),
		StorePath:            getEnv("STORE_PATH", "products_database.json"),
		MirrorDriver:         os.Getenv("MIRROR_DRIVER"),
		MirrorDSN:            os.Getenv("MIRROR_DSN"),
		SelectorsPath:        os.Getenv("SELECTORS_PATH"),
		Jobs:                 ParseJobs(getEnv("CATALOG_JOBS", "WOMEN:WOMEN_LUXURY,MEN,KIDS"), maxProducts),
		MaxProducts:          maxProducts,
		MaxImages:            getEnvInt("MAX_IMAGES", 10),
		ListingFilterIndex:   getEnvInt("LISTING_FILTER_INDEX", -1),
		LoginTimeout:         time.Duration(getEnvInt("LOGIN_TIMEOUT_SECONDS", 60)) * time.Second,
		ProbeTimeout:         time.Duration(getEnvInt("PROBE_TIMEOUT_MS", 3000)) * time.Millisecond,
		ConsentTimeout:       time.Duration(getEnvInt("CONSENT_TIMEOUT_MS", 2000)) * time.Millisecond,
		SettleDelay:          time.Duration(getEnvInt("SETTLE_DELAY_MS", 3000)) * time.Millisecond,
		PageTimeout:          time.Duration(getEnvInt("PAGE_TIMEOUT_SECONDS", 45)) * time.Second,
		ProductInterval:      time.Duration(getEnvInt("PRODUCT_INTERVAL_MS", 2000)) * time.Millisecond,
		AgentKind:            getEnv("AGENT", "chrome"),
		ChromeHeadless:       getEnv("CHROME_HEADLESS", "true") != "false",
		ChromeUserAgent:      getEnv("CHROME_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "products"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		LoginBlockTime:       time.Duration(getEnvInt("LOGIN_BLOCK_SECONDS", 600)) * time.Second,
		CrawlInterval:        time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 0)) * time.Second,
		FailureLogPath:       getEnv("FAILURE_LOG_PATH", "parser_errors.log"),
		Environment:          getEnv("CATALOG_ENVIRONMENT", "development"),
	}
}

// Validate checks the values the pipeline cannot run without
func (c *Config) Validate() error {
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("CATALOG_EMAIL and CATALOG_PASSWORD are required")
	}
	if c.MaxProducts <= 0 {
		return fmt.Errorf("MAX_PRODUCTS must be positive, got %d", c.MaxProducts)
	}
	if c.MaxImages <= 0 {
		return fmt.Errorf("MAX_IMAGES must be positive, got %d", c.MaxImages)
	}
	if c.StorePath == "" {
		return fmt.Errorf("STORE_PATH must not be empty")
	}
	if c.RedisStreamCount <= 0 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be positive, got %d", c.RedisStreamCount)
	}
	switch c.AgentKind {
	case "chrome", "http":
	default:
		return fmt.Errorf("unsupported AGENT %q", c.AgentKind)
	}
	switch c.MirrorDriver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported MIRROR_DRIVER %q", c.MirrorDriver)
	}
	if c.MirrorDriver != "" && c.MirrorDSN == "" {
		return fmt.Errorf("MIRROR_DSN is required when MIRROR_DRIVER is set")
	}
	return nil
}

// ParseJobs parses "CATEGORY[:SUBCATEGORY[:MAX]],..." into jobs.
// Entries without a usable max fall back to defaultMax.
func ParseJobs(spec string, defaultMax int) []Job {
	var jobs []Job
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		job := Job{
			Category:    strings.TrimSpace(parts[0]),
			MaxProducts: defaultMax,
		}
		if job.Category == "" {
			continue
		}
		if len(parts) > 1 {
			job.Subcategory = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			if n, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil && n > 0 {
				job.MaxProducts = n
			}
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return n
}
