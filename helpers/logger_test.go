package helpers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureLog(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "parser_errors.log")

	log := NewFailureLog(tmpFile)

	log.LogError("https://shop.test/product/1", errors.New("missing brand"))
	log.LogError("WOMEN", errors.New("category candidates exhausted"))

	data, err := os.ReadFile(tmpFile)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[https://shop.test/product/1] missing brand")
	assert.Contains(t, lines[1], "[WOMEN] category candidates exhausted")

	// Info messages go to the structured logger, not the file
	log.LogInfo("run finished: %d stored", 3)
}
