package selectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/internal/agent"
)

func TestDefaultIsValid(t *testing.T) {
	table := Default()
	require.NoError(t, table.Validate())
	assert.Equal(t, DefaultVersion, table.Version)
	assert.Equal(t, []string{"KIDS", "MEN", "WOMEN"}, table.CategoryNames())
	assert.Equal(t, "women", table.Categories["WOMEN"].Gender)

	// Default hands out independent copies
	table.ProductLinks = nil
	assert.NotEmpty(t, Default().ProductLinks)
}

func TestLoadEmptyPath(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, table.Version)
}

func TestLoadMergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.json5")

	require.NoError(t, os.WriteFile(path, []byte(`{
		// operators bump the version with every change
		version: "2025.08-hotfix",
		product_links: [
			{by: "css", query: "a.tile-link"},
		],
		subcategories: {
			WOMEN_OUTLET: [{by: "text", tag: "a", query: "Outlet"}],
		},
	}`), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "selectors.local.json5"), []byte(`{
		version: "2025.08-local",
	}`), 0644))

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "2025.08-local", table.Version)
	assert.Equal(t, []agent.Locator{agent.CSS("a.tile-link")}, table.ProductLinks)
	assert.Equal(t, []agent.Locator{agent.Text("a", "Outlet")}, table.Subcategories["WOMEN_OUTLET"])

	// Untouched sections keep their defaults
	assert.Equal(t, Default().Product.Name, table.Product.Name)
	assert.Contains(t, table.Subcategories, "WOMEN_LUXURY")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json5"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	broken := filepath.Join(dir, "broken.json5")
	require.NoError(t, os.WriteFile(broken, []byte(`{version: `), 0644))
	_, err = Load(broken)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json5")
	require.NoError(t, os.WriteFile(invalid, []byte(`{product_links: [{by: "xpath", query: "//a"}]}`), 0644))
	_, err = Load(invalid)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}
