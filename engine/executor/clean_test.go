package executor

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}
}

func TestCleaner_Clean(t *testing.T) {
	patterns := []string{".pytest_cache", ".mypy_cache", "**/__pycache__", "*.egg-info", "build"}

	t.Run("Should remove matching caches and keep sources", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		seed(t, fs,
			".pytest_cache/README.md",
			".mypy_cache/3.12/x.json",
			"src/app/__pycache__/main.cpython-312.pyc",
			"src/app/main.py",
			"tests/__pycache__/test_main.cpython-312.pyc",
			"demo.egg-info/PKG-INFO",
		)

		removed, err := NewCleaner(fs, patterns).Clean(t.Context())

		require.NoError(t, err)
		assert.Equal(t, []string{
			".mypy_cache",
			".pytest_cache",
			"demo.egg-info",
			"src/app/__pycache__",
			"tests/__pycache__",
		}, removed)
		exists, err := afero.Exists(fs, "src/app/main.py")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Should never touch virtual environments or git metadata", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		seed(t, fs,
			".venv/lib/site-packages/__pycache__/x.pyc",
			".git/hooks/__pycache__/y.pyc",
		)

		removed, err := NewCleaner(fs, patterns).Clean(t.Context())

		require.NoError(t, err)
		assert.Empty(t, removed)
		exists, err := afero.Exists(fs, ".venv/lib/site-packages/__pycache__/x.pyc")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Should remove a parent once instead of its nested matches", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		seed(t, fs, "build/lib/__pycache__/z.pyc")

		removed, err := NewCleaner(fs, patterns).Clean(t.Context())

		require.NoError(t, err)
		assert.Equal(t, []string{"build"}, removed)
	})

	t.Run("Should succeed when nothing matches", func(t *testing.T) {
		removed, err := NewCleaner(afero.NewMemMapFs(), patterns).Clean(t.Context())

		require.NoError(t, err)
		assert.Empty(t, removed)
	})

	t.Run("Should reject malformed patterns", func(t *testing.T) {
		_, err := NewCleaner(afero.NewMemMapFs(), []string{"[unclosed"}).Clean(t.Context())

		assert.Error(t, err)
	})
}
