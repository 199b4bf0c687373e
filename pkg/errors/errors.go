package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeAuth means no authenticated session could be established; terminal for a run
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeNavigation is scoped to a category or subcategory; the caller skips and continues
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeStrategyExhausted is scoped to a single field; the field becomes absent
	ErrorTypeStrategyExhausted ErrorType = "strategy_exhausted"
	// ErrorTypeRecordInvalid is scoped to a product; the product is dropped
	ErrorTypeRecordInvalid ErrorType = "record_invalid"
	// ErrorTypeStoreWrite is fatal for the upsert call that produced it
	ErrorTypeStoreWrite ErrorType = "store_write"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents an error raised somewhere in the extraction pipeline.
// Scope names what the error applies to: a category, a field, a product URL or a file path.
type CrawlerError struct {
	Type    ErrorType
	Scope   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Scope, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Scope, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a caller layered above the core may retry the operation.
// The core itself never retries.
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeNavigation:
		return true
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, scope, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		Scope:   scope,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewAuth creates a new authentication failure
func NewAuth(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeAuth, scope, message, err)
}

// NewNavigation creates a new navigation failure
func NewNavigation(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeNavigation, scope, message, err)
}

// NewStrategyExhausted reports that no strategy produced a valid value for field
func NewStrategyExhausted(field string, tried int) *CrawlerError {
	return New(ErrorTypeStrategyExhausted, field, fmt.Sprintf("%d strategies exhausted", tried), nil)
}

// NewRecordInvalid creates a new invalid record error for a product URL
func NewRecordInvalid(sourceURL, reason string) *CrawlerError {
	return New(ErrorTypeRecordInvalid, sourceURL, reason, nil)
}

// NewStoreWrite creates a new store write failure
func NewStoreWrite(path, message string, err error) *CrawlerError {
	return New(ErrorTypeStoreWrite, path, message, err)
}

// NewNetwork creates a new network error
func NewNetwork(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, scope, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(scope string, duration time.Duration) *CrawlerError {
	message := fmt.Sprintf("blocked for %v", duration)
	return New(ErrorTypeRateLimit, scope, message, nil)
}

// NewCache creates a new cache error
func NewCache(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, scope, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(scope, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, scope, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether any CrawlerError in err's chain has the given type
func IsType(err error, errType ErrorType) bool {
	var ce *CrawlerError
	for err != nil {
		if !stderrors.As(err, &ce) {
			return false
		}
		if ce.Type == errType {
			return true
		}
		err = ce.Err
	}
	return false
}
