package publisher

import (
	"encoding/json"

	"sjsage522/catalogworker/internal/product"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

// Publisher represents a service for publishing stored products downstream
type Publisher interface {
	// Publish publishes a message keyed by key to a stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// PublishProduct encodes p as JSON and publishes it keyed by its source URL
func PublishProduct(pub Publisher, p *product.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return apperrors.NewPublisher(p.SourceURL, "encode product", err)
	}
	if err := pub.Publish(p.SourceURL, data); err != nil {
		return apperrors.NewPublisher(p.SourceURL, "publish product", err)
	}
	return nil
}
