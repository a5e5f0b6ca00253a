// Build artifact detection from language manifests
// Reads package.json, tsconfig.json, Cargo.toml and pyproject.toml to find output directories
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds language-specific build output directories
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns exclusion globs such as "**/dist/**" for every
// output directory a manifest in the project root declares or implies
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string
	patterns = append(patterns, bad.detectJavaScriptOutputs()...)
	patterns = append(patterns, bad.detectRustOutputs()...)
	patterns = append(patterns, bad.detectPythonOutputs()...)
	return DeduplicatePatterns(patterns)
}

func dirPattern(dir string) string {
	dir = strings.Trim(filepath.ToSlash(strings.TrimPrefix(dir, "./")), "/")
	if dir == "" || dir == "." {
		return ""
	}
	return "**/" + dir + "/**"
}

func appendDir(patterns []string, dir string) []string {
	if p := dirPattern(dir); p != "" {
		return append(patterns, p)
	}
	return patterns
}

// detectJavaScriptOutputs reads tsconfig.json compilerOptions.outDir and package.json build.outDir
func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var patterns []string

	if data, err := os.ReadFile(filepath.Join(bad.projectRoot, "tsconfig.json")); err == nil {
		var tsconfig struct {
			CompilerOptions struct {
				OutDir string `json:"outDir"`
			} `json:"compilerOptions"`
		}
		if json.Unmarshal(data, &tsconfig) == nil {
			patterns = appendDir(patterns, tsconfig.CompilerOptions.OutDir)
		}
	}

	if data, err := os.ReadFile(filepath.Join(bad.projectRoot, "package.json")); err == nil {
		var pkg struct {
			Build struct {
				OutDir string `json:"outDir"`
			} `json:"build"`
		}
		if json.Unmarshal(data, &pkg) == nil {
			patterns = appendDir(patterns, pkg.Build.OutDir)
		}
	}

	return patterns
}

// detectRustOutputs reports target/ for any Cargo.toml, or a custom target-dir when set
func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "Cargo.toml"))
	if err != nil {
		return nil
	}

	var cargo struct {
		Build struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"build"`
	}
	if toml.Unmarshal(data, &cargo) != nil || cargo.Build.TargetDir == "" {
		return []string{dirPattern("target")}
	}
	return appendDir(nil, cargo.Build.TargetDir)
}

// detectPythonOutputs reports dist/ and build/ for projects described by pyproject.toml
func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, "pyproject.toml"))
	if err != nil {
		return nil
	}

	var pyproject map[string]interface{}
	if toml.Unmarshal(data, &pyproject) != nil {
		return nil
	}

	patterns := []string{dirPattern("dist"), dirPattern("build")}
	if tool, ok := pyproject["tool"].(map[string]interface{}); ok {
		if poetry, ok := tool["poetry"].(map[string]interface{}); ok {
			if build, ok := poetry["build"].(map[string]interface{}); ok {
				if targetDir, ok := build["target-dir"].(string); ok {
					patterns = appendDir(patterns, targetDir)
				}
			}
		}
	}
	return patterns
}

// DeduplicatePatterns removes duplicate exclusion patterns, keeping first occurrences
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
