package mcp

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	costAnalysisURI      = "file:///aws-cost-analysis"
	costAnalysisMIMEType = "text/markdown"
)

//go:embed resources/aws-cost-analysis.md
var costAnalysisGuide string

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         costAnalysisURI,
		Name:        "How to do Cost analysis via AWS Cost and Usage Reports",
		Description: "Reference guide for AWS Cost and Usage Reports analysis including database information, common query patterns, and example queries.",
		MIMEType:    costAnalysisMIMEType,
	}, s.readCostAnalysisGuide)
}

func (s *Server) readCostAnalysisGuide(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	content, err := s.costAnalysisGuide()
	if err != nil {
		s.log.Error("mcp/resource: failed to load reference document", "path", s.cfg.ResourcePath, "error", err)
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      costAnalysisURI,
			MIMEType: costAnalysisMIMEType,
			Text:     content,
		}},
	}, nil
}

func (s *Server) costAnalysisGuide() (string, error) {
	content := costAnalysisGuide
	if s.cfg.ResourcePath != "" {
		data, err := os.ReadFile(s.cfg.ResourcePath)
		if err != nil {
			return "", fmt.Errorf("failed to read reference document: %w", err)
		}
		content = string(data)
	}
	return replaceTemplateVariables(content, s.cfg.TemplateValues), nil
}

// replaceTemplateVariables substitutes every placeholder key in values with
// its value. Unknown placeholders are left as they are.
func replaceTemplateVariables(content string, values map[string]string) string {
	if len(values) == 0 {
		return content
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, values[k])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
