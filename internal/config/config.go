package config

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/lgrep/internal/types"
)

// FileName is the per-directory configuration file looked up in $HOME and in the search root
const FileName = ".lgrep.kdl"

type Config struct {
	Version int
	Search  Search
	Exclude []string            // doublestar globs relative to the search root
	Types   map[string][]string // user type definitions, name -> extensions without the dot

	// Sources lists the files that contributed to this config, lowest precedence first
	Sources []string
}

type Search struct {
	HeadLimit        int     // 0 = unlimited
	TimeoutSec       float64 // 0 = no deadline
	MaxFileSize      int64   // files above this size are skipped
	Hidden           bool    // search dot-prefixed entries
	RespectGitignore bool    // honor .gitignore, .ignore and git exclude files
	LineNumbers      bool    // default for -n
	SkipBuildOutput  bool    // exclude build output directories named by package manifests
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Version: 1,
		Search: Search{
			MaxFileSize:      types.DefaultMaxFileSize,
			RespectGitignore: true,
		},
		Exclude: []string{},
		Types:   map[string][]string{},
	}
}

// Load builds the effective configuration for a search rooted at rootDir.
// The global ~/.lgrep.kdl is applied first, then rootDir/.lgrep.kdl on top of it.
// Missing files are not an error.
func Load(rootDir string) (*Config, error) {
	cfg := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		if err := applyKDLFile(cfg, filepath.Join(homeDir, FileName)); err != nil {
			return nil, err
		}
	}

	if rootDir != "" {
		projectDir := rootDir
		if info, err := os.Stat(rootDir); err == nil && !info.IsDir() {
			projectDir = filepath.Dir(rootDir)
		}
		if absProject, err := filepath.Abs(projectDir); err == nil {
			projectDir = absProject
		}
		if homeDir == "" || filepath.Clean(homeDir) != projectDir {
			if err := applyKDLFile(cfg, filepath.Join(projectDir, FileName)); err != nil {
				return nil, err
			}
		}
		if cfg.Search.SkipBuildOutput {
			cfg.EnrichExclusionsWithBuildArtifacts(projectDir)
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads exactly one configuration file over the defaults.
// Used for an explicit --config flag; the file must exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := applyKDLFile(cfg, path); err != nil {
		return nil, err
	}
	if cfg.Search.SkipBuildOutput {
		cfg.EnrichExclusionsWithBuildArtifacts(filepath.Dir(path))
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnrichExclusionsWithBuildArtifacts detects build output directories from language manifests
// under projectRoot and adds them to the exclusion list
func (c *Config) EnrichExclusionsWithBuildArtifacts(projectRoot string) {
	detector := NewBuildArtifactDetector(projectRoot)
	detected := detector.DetectOutputDirectories()
	if len(detected) == 0 {
		return
	}
	c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
}
