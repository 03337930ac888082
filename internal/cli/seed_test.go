package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedUsesMemoryStoreWithoutConfig(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--title", "demo"})

	require.NoError(t, cmd.Execute())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "slug: "))
	assert.True(t, strings.HasPrefix(lines[1], "editToken: "))
}

func TestMigrateRequiresPostgres(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres url not configured")
}
