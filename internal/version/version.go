// Package version identifies an lgrep build.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"sync"
)

// Version is the release shared by the CLI and the MCP server
const Version = "0.2.0"

// Stamped at release time:
//
//	-ldflags "-X github.com/standardbeagle/lgrep/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Commit    = "unknown"
	BuildDate = "development"
)

// FullInfo is the one-line form written to the MCP diagnostic log
func FullInfo() string {
	return fmt.Sprintf("lgrep %s (commit: %s, built: %s, id: %s)", Version, Commit, BuildDate, BuildID())
}

var buildID = sync.OnceValue(fingerprint)

// BuildID returns 12 hex digits derived from the toolchain, module version and VCS
// stamp. Without embedded build info it is Version-Commit.
func BuildID() string {
	return buildID()
}

func fingerprint() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version + "-" + Commit
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s", info.GoVersion, info.Main.Path, info.Main.Version)
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" || s.Key == "vcs.modified" {
			fmt.Fprintf(h, "\x00%s=%s", s.Key, s.Value)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
