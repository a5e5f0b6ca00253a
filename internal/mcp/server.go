// Package mcp exposes the search engine as a Model Context Protocol tool server over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lgrep/internal/config"
	lgrepdebug "github.com/standardbeagle/lgrep/internal/debug"
	"github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/search"
	"github.com/standardbeagle/lgrep/internal/types"
	"github.com/standardbeagle/lgrep/internal/version"
)

const noMatches = "No matches found"

type Server struct {
	cfg              *config.Config
	engine           *search.Engine
	server           *mcp.Server
	diagnosticLogger *DiagnosticLogger // file-based only; stdio belongs to the protocol
}

// NewServer creates a server with the grep and types tools registered.
// A nil config means config.Default().
func NewServer(cfg *config.Config) (*Server, error) {
	return newServer(cfg, NewDiagnosticLogger(true))
}

func newServer(cfg *config.Config, logger *DiagnosticLogger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:              cfg,
		engine:           search.NewEngine(cfg),
		diagnosticLogger: logger,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "lgrep-mcp-server",
		Version: version.Version,
	}, nil)
	s.registerTools()

	logger.Printf("MCP server initialized (%s), config sources: %v", version.FullInfo(), cfg.Sources)
	return s, nil
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name: "grep",
		Description: "Search file contents with a regular expression (RE2 syntax), ripgrep style. " +
			"Respects .gitignore and skips hidden and binary files. output_mode: " +
			"'files_with_matches' (default) lists matching files, 'content' shows matching lines " +
			"(use -A/-B/-C for context, -n for line numbers), 'count' shows matches per file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"pattern": {
					Type:        "string",
					Description: "Regular expression to search for",
				},
				"path": {
					Type:        "string",
					Description: "File or directory to search (default: current directory)",
				},
				"glob": {
					Type:        "string",
					Description: "Only search files matching this glob, e.g. \"*.js\" or \"src/**/*.{ts,tsx}\"",
				},
				"output_mode": {
					Type:        "string",
					Enum:        []any{"content", "files_with_matches", "count"},
					Description: "Shape of the result",
				},
				"-B": {
					Type:        "integer",
					Description: "Lines of context before each match (content mode)",
				},
				"-A": {
					Type:        "integer",
					Description: "Lines of context after each match (content mode)",
				},
				"-C": {
					Type:        "integer",
					Description: "Lines of context before and after each match; overrides -A and -B",
				},
				"-n": {
					Type:        "boolean",
					Description: "Show line numbers (content mode)",
				},
				"-i": {
					Type:        "boolean",
					Description: "Case insensitive search",
				},
				"type": {
					Description: "File type(s) to search, e.g. \"py\", \"rust\" or [\"js\", \"ts\"]. See the types tool.",
					AnyOf: []*jsonschema.Schema{
						{Type: "string"},
						{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
				},
				"head_limit": {
					Type:        "integer",
					Description: "Limit output to the first N lines, files or count entries",
				},
				"multiline": {
					Type:        "boolean",
					Description: "Let patterns span lines; '.' also matches newlines",
				},
				"hidden": {
					Type:        "boolean",
					Description: "Also search hidden files and directories",
				},
				"timeout": {
					Type:        "number",
					Description: "Give up after this many seconds",
				},
			},
			Required: []string{"pattern"},
		},
	}, s.handleGrep)

	s.server.AddTool(&mcp.Tool{
		Name:        "types",
		Description: "List the file type names accepted by the grep tool's 'type' parameter, with aliases and extensions.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleTypes)
}

func (s *Server) handleGrep(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("grep", func() (*mcp.CallToolResult, error) {
		var params GrepParams
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("grep", errors.NewValidationError("arguments", "", err.Error()))
		}

		start := time.Now()
		result, err := s.engine.SearchOptions(ctx, params.RawOptions())
		if err != nil {
			s.diagnosticLogger.Printf("grep %q in %q failed: %v", params.Pattern, params.Path, err)
			response, respErr := createErrorResponse("grep", err)
			addWarningsToResponse(response, params.Warnings)
			return response, respErr
		}

		s.diagnosticLogger.Printf("grep %q in %q: %d results, %d files scanned in %s",
			params.Pattern, params.Path, result.Len(), result.FilesScanned, time.Since(start))
		lgrepdebug.LogMCP("grep result mode=%s len=%d", result.Mode, result.Len())

		response := createTextResponse(formatResult(result))
		addWarningsToResponse(response, params.Warnings)
		return response, nil
	})
}

func (s *Server) handleTypes(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return createJSONResponse(map[string]interface{}{
		"types": s.engine.Normalizer().Types().List(),
	})
}

// formatResult renders a result as text lines: content lines as emitted, one path per
// matching file, or path:count per counted file
func formatResult(result *types.Result) []string {
	if result.Empty() {
		return []string{noMatches}
	}

	switch result.Mode {
	case types.OutputContent:
		return result.Lines
	case types.OutputCount:
		lines := make([]string, 0, len(result.Counts))
		for _, c := range result.Counts {
			lines = append(lines, c.Path+":"+strconv.Itoa(c.Count))
		}
		return lines
	default:
		return result.Files
	}
}

// recoverFromPanic turns a handler panic into an error result instead of killing the server
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.diagnosticLogger.Errorf("PANIC RECOVERED in %s: %v\n%s", operation, r, debug.Stack())
			result, err = createErrorResponse(operation, errors.InternalError("panic: %v", r))
		}
	}()
	return handler()
}

// Start serves MCP over stdio until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetHandlerForTesting returns a tool handler by name
func (s *Server) GetHandlerForTesting(toolName string) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch toolName {
	case "grep":
		return s.handleGrep
	case "types":
		return s.handleTypes
	default:
		return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return createErrorResponse(toolName, fmt.Errorf("unknown tool: %s", toolName))
		}
	}
}

// Close releases the diagnostic log file
func (s *Server) Close() error {
	s.diagnosticLogger.Printf("MCP server shutdown complete")
	return s.diagnosticLogger.Close()
}
