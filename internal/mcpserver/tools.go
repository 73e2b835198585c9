package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/metriculator/internal/output"
	"github.com/panbanda/metriculator/internal/service/analysis"
	scannerSvc "github.com/panbanda/metriculator/internal/service/scanner"
	"github.com/panbanda/metriculator/pkg/config"
	"github.com/panbanda/metriculator/pkg/metrics"
	"github.com/panbanda/metriculator/pkg/model"
)

// AnalyzeInput is the base input for all tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ScopeTreeInput adds scope tree options.
type ScopeTreeInput struct {
	AnalyzeInput
	Workspace bool   `json:"workspace,omitempty" jsonschema:"Build one tree for all files under a workspace root."`
	Builder   string `json:"builder,omitempty" jsonschema:"Tree builder: structural (default, merges re-opened scopes) or append."`
}

// ScopeMetricsInput adds metric options.
type ScopeMetricsInput struct {
	AnalyzeInput
	Top                 int `json:"top,omitempty" jsonschema:"Show top N functions by complexity. Default 20."`
	CyclomaticThreshold int `json:"cyclomatic_threshold,omitempty" jsonschema:"Cyclomatic complexity threshold for violations. Default 10."`
	CognitiveThreshold  int `json:"cognitive_threshold,omitempty" jsonschema:"Cognitive complexity threshold for violations. Default 15."`
}

// ScopeLinkageInput selects files for linkage analysis.
type ScopeLinkageInput struct {
	AnalyzeInput
}

type fileScopes struct {
	Path        string           `json:"path"`
	ParseErrors bool             `json:"parse_errors,omitempty"`
	Scopes      []analysis.Scope `json:"scopes"`
}

type treeResult struct {
	Files     []fileScopes         `json:"files,omitempty"`
	Scopes    []analysis.Scope     `json:"scopes,omitempty"`
	Undefined []string             `json:"undefined,omitempty"`
	Errors    []analysis.FileError `json:"errors,omitempty"`
}

type metricsResult struct {
	Summary    metrics.Summary           `json:"summary"`
	Functions  []metrics.FunctionMetrics `json:"functions"`
	Violations []metrics.Violation       `json:"violations,omitempty"`
	Undefined  []string                  `json:"undefined,omitempty"`
	Errors     []analysis.FileError      `json:"errors,omitempty"`
}

type linkageResult struct {
	Declared  int                  `json:"declared"`
	Defined   int                  `json:"defined"`
	Undefined []string             `json:"undefined"`
	Errors    []analysis.FileError `json:"errors,omitempty"`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := output.MarshalTOON(data)
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := output.MarshalTOON(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// scan resolves input paths to C and C++ files.
func (s *Server) scan(cfg *config.Config, input AnalyzeInput) ([]string, error) {
	result, err := scannerSvc.New(scannerSvc.WithConfig(cfg)).ScanPaths(getPaths(input))
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

func (s *Server) service(cfg *config.Config) *analysis.Service {
	return analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(s.logger))
}

func (s *Server) handleScopeTree(ctx context.Context, req *mcp.CallToolRequest, input ScopeTreeInput) (*mcp.CallToolResult, any, error) {
	cfg := *s.config
	if input.Builder != "" {
		cfg.Analysis.Builder = input.Builder
	}
	files, err := s.scan(&cfg, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no C or C++ files found")
	}

	svc := s.service(&cfg)
	if input.Workspace {
		name := filepath.Base(getPaths(input.AnalyzeInput)[0])
		ws, err := svc.BuildWorkspace(ctx, name, files, analysis.Options{})
		if err != nil {
			return toolError(err.Error())
		}
		return toolResult(treeResult{
			Scopes:    analysis.Flatten(ws.Tree),
			Undefined: ws.Linkage.Undefined(),
			Errors:    ws.Errors,
		}, getFormat(input.AnalyzeInput))
	}

	report, err := svc.Analyze(ctx, files, analysis.Options{})
	if err != nil {
		return toolError(err.Error())
	}
	result := treeResult{Errors: report.Errors}
	for _, f := range report.Files {
		result.Files = append(result.Files, fileScopes{Path: f.Path, ParseErrors: f.ParseErrors, Scopes: f.Scopes})
	}
	return toolResult(result, getFormat(input.AnalyzeInput))
}

func (s *Server) handleScopeMetrics(ctx context.Context, req *mcp.CallToolRequest, input ScopeMetricsInput) (*mcp.CallToolResult, any, error) {
	cfg := *s.config
	if input.CyclomaticThreshold > 0 {
		cfg.Thresholds.Cyclomatic = input.CyclomaticThreshold
	}
	if input.CognitiveThreshold > 0 {
		cfg.Thresholds.Cognitive = input.CognitiveThreshold
	}
	top := input.Top
	if top <= 0 {
		top = 20
	}

	files, err := s.scan(&cfg, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no C or C++ files found")
	}

	report, err := s.service(&cfg).Analyze(ctx, files, analysis.Options{})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(metricsResult{
		Summary:    report.Summary,
		Functions:  output.TopFunctions(report.Functions(), top),
		Violations: report.Violations,
		Undefined:  report.Undefined,
		Errors:     report.Errors,
	}, getFormat(input.AnalyzeInput))
}

func (s *Server) handleScopeLinkage(ctx context.Context, req *mcp.CallToolRequest, input ScopeLinkageInput) (*mcp.CallToolResult, any, error) {
	cfg := *s.config
	files, err := s.scan(&cfg, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no C or C++ files found")
	}

	report, err := s.service(&cfg).Analyze(ctx, files, analysis.Options{})
	if err != nil {
		return toolError(err.Error())
	}

	declared := make(map[string]bool)
	defined := make(map[string]bool)
	for _, f := range report.Files {
		for _, sc := range f.Scopes {
			if sc.Binding == "" {
				continue
			}
			switch sc.Kind {
			case model.KindFunctionDecl.String():
				declared[sc.Binding] = true
			case model.KindFunctionDef.String():
				defined[sc.Binding] = true
			}
		}
	}
	undefined := report.Undefined
	if undefined == nil {
		undefined = []string{}
	}
	return toolResult(linkageResult{
		Declared:  len(declared),
		Defined:   len(defined),
		Undefined: undefined,
		Errors:    report.Errors,
	}, getFormat(input.AnalyzeInput))
}
