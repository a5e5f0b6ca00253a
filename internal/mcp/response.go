package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lgrep/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createTextResponse returns lines joined by newlines as a single text block
func createTextResponse(lines []string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: strings.Join(lines, "\n")},
		},
	}
}

// createErrorResponse reports a failed call inside the result with IsError set,
// so the client model sees the error and can correct its arguments.
// error_type lets callers tell a bad pattern from a missing path from a timeout.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":    false,
		"error":      err.Error(),
		"error_type": string(errors.Kind(err)),
		"operation":  operation,
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

// addWarningsToResponse appends warnings to the first text block of result
func addWarningsToResponse(result *mcp.CallToolResult, warnings []string) {
	if result == nil || len(warnings) == 0 || len(result.Content) == 0 {
		return
	}

	textContent, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return
	}

	var responseData map[string]interface{}
	if err := json.Unmarshal([]byte(textContent.Text), &responseData); err == nil {
		responseData["warnings"] = warnings
		if updated, err := json.Marshal(responseData); err == nil {
			textContent.Text = string(updated)
			return
		}
	}

	var sb strings.Builder
	sb.WriteString(textContent.Text)
	sb.WriteString("\n\nWarnings:\n")
	for _, warning := range warnings {
		sb.WriteString("- ")
		sb.WriteString(warning)
		sb.WriteString("\n")
	}
	textContent.Text = sb.String()
}
