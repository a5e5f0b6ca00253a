package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreAnyFunction("os/signal.loop"),
	)
}

// isolate keeps the user's ~/.lgrep.kdl and global git excludes out of the test
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	isolate(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.py":        "import os\nprint('foo')\n",
		"b.txt":       "foo bar\nFOO BAR\n",
		"vendor/c.go": "package vendor // foo\n",
	})
	return dir
}

// lgrep runs one command line in-process
func lgrep(t *testing.T, args ...string) (stdout, stderr string, status int) {
	t.Helper()
	var out, errOut bytes.Buffer
	status = run(append([]string{"lgrep"}, args...), &out, &errOut)
	return out.String(), errOut.String(), status
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestSearch_ContentDefault(t *testing.T) {
	dir := fixture(t)

	stdout, stderr, status := lgrep(t, "-n", "foo", dir)
	require.Equal(t, exitMatch, status, stderr)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py") + ":2:print('foo')",
		"--",
		filepath.Join(dir, "b.txt") + ":1:foo bar",
		"--",
		filepath.Join(dir, "vendor", "c.go") + ":1:package vendor // foo",
	}, lines(stdout))
}

func TestSearch_NoMatch(t *testing.T) {
	dir := fixture(t)

	stdout, stderr, status := lgrep(t, "nothing-here", dir)
	assert.Equal(t, exitNoMatch, status)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestSearch_Modes(t *testing.T) {
	dir := fixture(t)

	stdout, _, status := lgrep(t, "-l", "foo", dir)
	require.Equal(t, exitMatch, status)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "vendor", "c.go"),
	}, lines(stdout))

	stdout, _, status = lgrep(t, "-c", "-i", "foo", dir)
	require.Equal(t, exitMatch, status)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py") + ":1",
		filepath.Join(dir, "b.txt") + ":2",
		filepath.Join(dir, "vendor", "c.go") + ":1",
	}, lines(stdout))

	stdout, _, status = lgrep(t, "--output-mode", "files_with_matches", "--head-limit", "1", "foo", dir)
	require.Equal(t, exitMatch, status)
	assert.Equal(t, []string{filepath.Join(dir, "a.py")}, lines(stdout))

	stdout, _, status = lgrep(t, "--head-limit", "0", "foo", dir)
	assert.Equal(t, exitNoMatch, status)
	assert.Empty(t, stdout)
}

func TestSearch_CombinedShortFlags(t *testing.T) {
	dir := fixture(t)

	stdout, _, status := lgrep(t, "-in", "-t", "txt", "foo bar", dir)
	require.Equal(t, exitMatch, status)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.txt") + ":1:foo bar",
		filepath.Join(dir, "b.txt") + ":2:FOO BAR",
	}, lines(stdout))
}

func TestSearch_GlobAndType(t *testing.T) {
	dir := fixture(t)

	stdout, _, status := lgrep(t, "-l", "-g", "*.go", "-t", "go", "foo", dir)
	require.Equal(t, exitMatch, status)
	assert.Equal(t, []string{filepath.Join(dir, "vendor", "c.go")}, lines(stdout))

	// Both filters must hold
	_, _, status = lgrep(t, "-l", "-g", "*.go", "-t", "py", "foo", dir)
	assert.Equal(t, exitNoMatch, status)
}

func TestSearch_MultiplePathsKeepArgumentOrder(t *testing.T) {
	isolate(t)
	first := t.TempDir()
	second := t.TempDir()
	writeTree(t, first, map[string]string{"z.txt": "needle\n"})
	writeTree(t, second, map[string]string{"a.txt": "needle\n"})

	stdout, _, status := lgrep(t, "-l", "-e", "needle", second, first)
	require.Equal(t, exitMatch, status)
	assert.Equal(t, []string{
		filepath.Join(second, "a.txt"),
		filepath.Join(first, "z.txt"),
	}, lines(stdout))
}

func TestSearch_OneMissingPath(t *testing.T) {
	dir := fixture(t)
	missing := filepath.Join(dir, "missing")

	stdout, stderr, status := lgrep(t, "-l", "-e", "foo", missing, dir)
	assert.Equal(t, exitError, status)
	assert.Contains(t, stderr, missing)
	assert.Contains(t, stdout, filepath.Join(dir, "a.py"))
}

func TestSearch_UsageErrors(t *testing.T) {
	dir := fixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no pattern", args: nil, want: "usage:"},
		{name: "bad regex", args: []string{"foo(", dir}, want: "foo("},
		{name: "unknown type", args: []string{"-t", "pyton", "foo", dir}, want: "python"},
		{name: "negative context", args: []string{"-C", "-1", "foo", dir}, want: "context"},
		{name: "list and count", args: []string{"-l", "-c", "foo", dir}, want: "cannot be combined"},
		{name: "bad mode", args: []string{"--output-mode", "lines", "foo", dir}, want: "output_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, status := lgrep(t, tt.args...)
			assert.Equal(t, exitError, status)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestSearch_JSON(t *testing.T) {
	dir := fixture(t)
	missing := filepath.Join(dir, "missing")

	stdout, _, status := lgrep(t, "--json", "-c", "-e", "foo", dir, missing)
	assert.Equal(t, exitError, status)

	recs := lines(stdout)
	require.Len(t, recs, 2)

	var ok struct {
		Root   string         `json:"root"`
		Mode   string         `json:"mode"`
		Counts []jsonCountRow `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(recs[0]), &ok))
	assert.Equal(t, dir, ok.Root)
	assert.Equal(t, "count", ok.Mode)
	assert.Len(t, ok.Counts, 3)

	var failed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(recs[1]), &failed))
	assert.Equal(t, missing, failed["root"])
	assert.Equal(t, "not_found", failed["error_type"])
}

type jsonCountRow struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func TestSearch_ConfigFile(t *testing.T) {
	dir := fixture(t)
	cfgPath := filepath.Join(t.TempDir(), "custom.kdl")
	require.NoError(t, os.WriteFile(cfgPath, []byte("exclude \"**/vendor/**\"\nsearch {\n    line_numbers true\n}\n"), 0o644))

	stdout, stderr, status := lgrep(t, "--config", cfgPath, "-t", "go", "foo", dir)
	assert.Equal(t, exitNoMatch, status, stderr)
	assert.Empty(t, stdout)

	stdout, _, status = lgrep(t, "--config", cfgPath, "-t", "py", "foo", dir)
	require.Equal(t, exitMatch, status)
	assert.Equal(t, []string{filepath.Join(dir, "a.py") + ":2:print('foo')"}, lines(stdout))

	_, stderr, status = lgrep(t, "--config", filepath.Join(dir, "nope.kdl"), "foo", dir)
	assert.Equal(t, exitError, status)
	assert.Contains(t, stderr, "nope.kdl")
}

func TestSearch_ProjectConfig(t *testing.T) {
	dir := fixture(t)
	writeTree(t, dir, map[string]string{".lgrep.kdl": "exclude \"**/vendor/**\"\n"})

	stdout, _, status := lgrep(t, "-l", "foo", dir)
	require.Equal(t, exitMatch, status)
	assert.NotContains(t, stdout, "vendor")
}

func TestTypesCommand(t *testing.T) {
	isolate(t)

	stdout, _, status := lgrep(t, "types")
	require.Equal(t, exitMatch, status)
	assert.Contains(t, stdout, "python")
	assert.Contains(t, stdout, "*.py")

	stdout, _, status = lgrep(t, "types", "--json")
	require.Equal(t, exitMatch, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	assert.NotEmpty(t, list)
}

func TestExitStatus(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitMatch, exitStatus(nil, &stderr))
	assert.Equal(t, exitNoMatch, exitStatus(cli.Exit("", exitNoMatch), &stderr))
	assert.Empty(t, stderr.String())

	assert.Equal(t, exitError, exitStatus(assert.AnError, &stderr))
	assert.Contains(t, stderr.String(), assert.AnError.Error())
}

func TestWatchSession_PrintsOnlyChanges(t *testing.T) {
	dir := fixture(t)

	// Build the invocation the way the watch command does
	var inv *invocation
	app := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	app.Action = func(c *cli.Context) error {
		var err error
		inv, err = parseInvocation(c)
		return err
	}
	require.NoError(t, app.Run([]string{"lgrep", "-l", "foo", dir}))
	require.NotNil(t, inv)

	var out, errOut bytes.Buffer
	session := &watchSession{inv: inv, stdout: &out, stderr: &errOut}
	ctx := context.Background()

	assert.True(t, session.refresh(ctx))
	assert.Contains(t, out.String(), filepath.Join(dir, "a.py"))

	out.Reset()
	assert.False(t, session.refresh(ctx))
	assert.Empty(t, out.String())

	writeTree(t, dir, map[string]string{"d.md": "foo\n"})
	assert.True(t, session.refresh(ctx))
	assert.Contains(t, out.String(), filepath.Join(dir, "d.md"))

	require.NoError(t, os.Remove(filepath.Join(dir, "a.py")))
	require.NoError(t, os.Remove(filepath.Join(dir, "b.txt")))
	require.NoError(t, os.Remove(filepath.Join(dir, "vendor", "c.go")))
	require.NoError(t, os.Remove(filepath.Join(dir, "d.md")))
	out.Reset()
	assert.True(t, session.refresh(ctx))
	assert.Contains(t, out.String(), noMatchesText)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, session.refresh(canceled))
}
