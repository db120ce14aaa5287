package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_String(t *testing.T) {
	t.Run("Should render the injected build variables", func(t *testing.T) {
		info := Info{Version: "1.2.0", CommitHash: "abc123", BuildDate: "2024-01-01T00:00:00Z"}

		assert.Equal(t, "dispatch 1.2.0 (commit abc123, built 2024-01-01T00:00:00Z)", info.String())
	})

	t.Run("Should report development builds", func(t *testing.T) {
		assert.Equal(t, "dev", GetVersion())
		assert.Equal(t, GetVersion(), Get().Version)
	})
}
