package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSplitPart(t *testing.T) {
	part, err := GetSplitPart("a/b/c", "/", 1)
	assert.NoError(t, err)
	assert.Equal(t, "b", part)

	_, err = GetSplitPart("a/b/c", "/", 3)
	assert.Error(t, err)
}

func TestPathSegmentAfter(t *testing.T) {
	id, err := PathSegmentAfter("https://www.shop.test/de/product/AB1234?ref=list", "product")
	assert.NoError(t, err)
	assert.Equal(t, "AB1234", id)

	_, err = PathSegmentAfter("https://www.shop.test/de/product", "product")
	assert.Error(t, err)

	_, err = PathSegmentAfter("https://www.shop.test/de/catalog/1", "product")
	assert.Error(t, err)
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "RRP 120,00 € - 25%", CollapseSpace("  RRP\n 120,00 €\t-  25% "))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), 0))
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, SleepContext(ctx, 0), context.Canceled)
}
