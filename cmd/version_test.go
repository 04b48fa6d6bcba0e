package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_PrintsInfo(t *testing.T) {
	out, err := captureCombinedOutput(versionCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Folio version: "+version)
	assert.Contains(t, out, "Go version:")
	assert.Contains(t, out, "Platform: "+platform)
}

func TestVersionNeedsNoConfig(t *testing.T) {
	t.Setenv("FOLIO_HOME", t.TempDir())
	t.Setenv("FOLIO_SESSION_BACKEND", "floppy")

	out, err := captureCombinedOutput(createRootCmd(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Folio version:")
}
