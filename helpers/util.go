package helpers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// PathSegmentAfter returns the path segment that follows marker in rawURL,
// e.g. PathSegmentAfter("https://x/product/123?a=b", "product") == "123".
func PathSegmentAfter(rawURL, marker string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	path := strings.Trim(u.Path, "/")
	for i := 0; ; i++ {
		part, err := GetSplitPart(path, "/", i)
		if err != nil {
			return "", errors.New("marker not found")
		}
		if part == marker {
			return GetSplitPart(path, "/", i+1)
		}
	}
}

// CollapseSpace trims s and collapses internal whitespace runs to one space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SleepContext waits for d or until ctx is done. A non-positive d only
// reports the context state.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
