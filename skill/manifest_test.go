package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/skillmesh/core"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skills.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
skills:
  blacklist: [shell]
  require_confirmation: [delete_file, git_push]
`)

	policy, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"shell"}, policy.Blacklist)
	assert.Equal(t, []string{"delete_file", "git_push"}, policy.RequireConfirmation)
	assert.Empty(t, policy.Whitelist)
}

func TestLoadManifestConflictingModes(t *testing.T) {
	path := writeManifest(t, `
skills:
  whitelist: [files]
  blacklist: [shell]
`)

	_, err := LoadManifest(path)
	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadManifestInvalidYAML(t *testing.T) {
	path := writeManifest(t, "skills: [not a map")
	_, err := LoadManifest(path)
	require.Error(t, err)
}
