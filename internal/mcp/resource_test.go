package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	appconfig "github.com/kaizen-ai-systems/athena-mcp-server/internal/config"
)

func TestReplaceTemplateVariables(t *testing.T) {
	values := map[string]string{
		"${ATHENA_DATABASE}": "cur",
		"${ATHENA_TABLE}":    "report",
	}
	got := replaceTemplateVariables("SELECT * FROM ${ATHENA_DATABASE}.${ATHENA_TABLE} -- ${UNKNOWN}", values)
	require.Equal(t, "SELECT * FROM cur.report -- ${UNKNOWN}", got)

	require.Equal(t, "unchanged ${ATHENA_TABLE}", replaceTemplateVariables("unchanged ${ATHENA_TABLE}", nil))
}

func TestCostAnalysisGuideFallbacks(t *testing.T) {
	s := newTestServer(t, &fakeClient{})

	text, err := s.costAnalysisGuide()
	require.NoError(t, err)
	require.Contains(t, text, appconfig.FallbackDatabase+"."+appconfig.FallbackTable)
	require.Contains(t, text, "`"+appconfig.FallbackWorkgroup+"`")
	require.Contains(t, text, "your-bucket/athena-results")
	require.NotContains(t, text, "${ATHENA_")
}

func TestCostAnalysisGuideReadsPathOnEveryFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("v1 ${ATHENA_WORKGROUP}"), 0o600))

	s := newTestServer(t, &fakeClient{}, func(c *Config) {
		c.ResourcePath = path
		c.TemplateValues = appconfig.AthenaConfig{Workgroup: "analytics"}.TemplateValues()
	})

	text, err := s.costAnalysisGuide()
	require.NoError(t, err)
	require.Equal(t, "v1 analytics", text)

	require.NoError(t, os.WriteFile(path, []byte("v2 ${ATHENA_WORKGROUP}"), 0o600))
	text, err = s.costAnalysisGuide()
	require.NoError(t, err)
	require.Equal(t, "v2 analytics", text)
}

func TestCostAnalysisGuideMissingFile(t *testing.T) {
	s := newTestServer(t, &fakeClient{}, func(c *Config) {
		c.ResourcePath = filepath.Join(t.TempDir(), "missing.md")
	})

	_, err := s.readCostAnalysisGuide(t.Context(), nil)
	require.ErrorContains(t, err, "failed to read reference document")
}
