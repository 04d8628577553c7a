package process

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "apparatus.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
apparatuses:
  - name: gen
    kind: processor
    command: python3
    args: [gen.py]
    env:
      MODEL: tiny
    timeout: 30s
  - name: review
    kind: switcher
    command: ./review.sh
`), 0644))

		configs, err := LoadConfig(path)
		require.NoError(t, err)
		require.Len(t, configs, 2)
		assert.Equal(t, "gen", configs[0].Name)
		assert.Equal(t, domain.ApparatusProcessor, configs[0].Kind)
		assert.Equal(t, []string{"gen.py"}, configs[0].Args)
		assert.Equal(t, "tiny", configs[0].Environment["MODEL"])
		assert.Equal(t, domain.ApparatusSwitcher, configs[1].Kind)
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "apparatus.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"apparatuses": [{"name": "gen", "kind": "processor", "command": "cat"}]}`), 0644))

		configs, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Len(t, configs, 1)
	})

	t.Run("Missing File", func(t *testing.T) {
		configs, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Empty(t, configs)
	})

	t.Run("Invalid Entries", func(t *testing.T) {
		for name, body := range map[string]string{
			"no-name.yaml":     "apparatuses: [{kind: processor, command: cat}]",
			"no-command.yaml":  "apparatuses: [{name: a, kind: processor}]",
			"bad-kind.yaml":    "apparatuses: [{name: a, kind: oracle, command: cat}]",
			"bad-timeout.yaml": "apparatuses: [{name: a, kind: processor, command: cat, timeout: soon}]",
		} {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err, name)
		}
	})
}
