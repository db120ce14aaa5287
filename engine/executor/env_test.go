package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	t.Run("Should return an empty map for a missing file", func(t *testing.T) {
		env, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))

		require.NoError(t, err)
		assert.Empty(t, env)
	})

	t.Run("Should parse dotenv files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("PASSWORD=secret\n# comment\nMODE=\"dev\"\n"), 0o600))

		env, err := LoadEnvFile(path)

		require.NoError(t, err)
		assert.Equal(t, EnvMap{"PASSWORD": "secret", "MODE": "dev"}, env)
	})
}

func TestEnvMap_Merge(t *testing.T) {
	t.Run("Should let file values override inherited ones", func(t *testing.T) {
		base := EnvFromList([]string{"PASSWORD=old", "PATH=/bin", "broken"})

		merged, err := base.Merge(EnvMap{"PASSWORD": "new"})

		require.NoError(t, err)
		assert.Equal(t, []string{"PASSWORD=new", "PATH=/bin"}, merged.List())
	})
}

func TestChildEnv(t *testing.T) {
	t.Run("Should apply the env file over the process environment", func(t *testing.T) {
		t.Setenv("DISPATCH_TEST_VALUE", "from-process")
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("DISPATCH_TEST_VALUE=from-file\n"), 0o600))

		env, err := ChildEnv(path)

		require.NoError(t, err)
		assert.Contains(t, env, "DISPATCH_TEST_VALUE=from-file")
		assert.NotContains(t, env, "DISPATCH_TEST_VALUE=from-process")
	})
}
