package walker

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lgrep/internal/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func relPaths(t *testing.T, w *Walker) []string {
	t.Helper()
	var out []string
	for entry, err := range w.Entries() {
		require.NoError(t, err)
		out = append(out, entry.RelPath)
	}
	return out
}

func isolateGitConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
}

func fixture(t *testing.T) string {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":          "x",
		"b.js":          "x",
		"notes.txt":     "x",
		"ignored.txt":   "x",
		".gitignore":    "ignored.txt\nbuild/\n",
		".env.py":       "x",
		".hidden/e.py":  "x",
		"build/out.py":  "x",
		"src/c.py":      "x",
		"src/d.go":      "x",
		"src/deep/f.py": "x",
		"log1.txt":      "x",
		"log4.txt":      "x",
	})
	return root
}

func TestEntries_DefaultRules(t *testing.T) {
	isolateGitConfig(t)
	root := fixture(t)

	w, err := New(root, Options{RespectGitignore: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a.py", "b.js", "log1.txt", "log4.txt", "notes.txt",
		"src/c.py", "src/d.go", "src/deep/f.py",
	}, relPaths(t, w))
}

func TestEntries_HiddenAndNoIgnore(t *testing.T) {
	isolateGitConfig(t)
	root := fixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	writeTree(t, root, map[string]string{".git/config": "x"})

	w, err := New(root, Options{Hidden: true})
	require.NoError(t, err)

	got := relPaths(t, w)
	assert.Contains(t, got, ".env.py")
	assert.Contains(t, got, ".hidden/e.py")
	assert.Contains(t, got, ".gitignore")
	assert.Contains(t, got, "ignored.txt")
	assert.Contains(t, got, "build/out.py")
	assert.NotContains(t, got, ".git/config", ".git is always skipped")
}

func TestEntries_GlobOverride(t *testing.T) {
	isolateGitConfig(t)
	root := fixture(t)

	tests := []struct {
		glob string
		want []string
	}{
		{"*.py", []string{"a.py", "src/c.py", "src/deep/f.py"}},
		{"src/*.py", []string{"src/c.py"}},
		{"./src/*.py", []string{"src/c.py"}},
		{"src/**/*.py", []string{"src/c.py", "src/deep/f.py"}},
		{"*.{py,js}", []string{"a.py", "b.js", "src/c.py", "src/deep/f.py"}},
		{"log[123].txt", []string{"log1.txt"}},
		{"f.py", []string{"src/deep/f.py"}},
		{"*.PY", nil},
	}

	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			w, err := New(root, Options{RespectGitignore: true, Glob: NewGlobOverride(tt.glob)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, relPaths(t, w))
		})
	}
}

func TestEntries_GlobAndTypeAreANDed(t *testing.T) {
	isolateGitConfig(t)
	root := fixture(t)

	w, err := New(root, Options{
		RespectGitignore: true,
		Glob:             NewGlobOverride("*.py"),
		Types:            NewTypeFilter([]string{"js", "jsx"}),
	})
	require.NoError(t, err)
	assert.Empty(t, relPaths(t, w))

	w, err = New(root, Options{
		RespectGitignore: true,
		Glob:             NewGlobOverride("src/*"),
		Types:            NewTypeFilter([]string{"py", "pyw", "pyi"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/c.py"}, relPaths(t, w))
}

func TestEntries_TypesAreORed(t *testing.T) {
	isolateGitConfig(t)
	root := fixture(t)

	w, err := New(root, Options{
		RespectGitignore: true,
		Types:            NewTypeFilter([]string{"js", "go"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.js", "src/d.go"}, relPaths(t, w))
}

func TestEntries_ConfigExclude(t *testing.T) {
	isolateGitConfig(t)
	root := fixture(t)

	w, err := New(root, Options{RespectGitignore: true, Exclude: []string{"src/deep/**", "*.txt"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.js", "src/c.py", "src/d.go"}, relPaths(t, w))
}

func TestEntries_ParentIgnoreFilesInRepo(t *testing.T) {
	isolateGitConfig(t)
	repo := t.TempDir()
	writeTree(t, repo, map[string]string{
		".git/info/exclude": "*.tmp\n",
		".gitignore":        "*.gen\n",
		"sub/a.gen":         "x",
		"sub/b.tmp":         "x",
		"sub/c.go":          "x",
		"sub/keep/.ignore":  "!*.gen\n",
		"sub/keep/d.gen":    "x",
	})

	w, err := New(filepath.Join(repo, "sub"), Options{RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.go", "keep/d.gen"}, relPaths(t, w))
}

func TestEntries_GlobalExcludesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeTree(t, xdg, map[string]string{"git/ignore": "*.secret\n"})

	repo := t.TempDir()
	writeTree(t, repo, map[string]string{
		".git/HEAD": "ref: refs/heads/main\n",
		"a.secret":  "x",
		"a.go":      "x",
	})

	w, err := New(repo, Options{RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, relPaths(t, w))
}

func TestEntries_DisplayPathJoinsRoot(t *testing.T) {
	isolateGitConfig(t)
	root := fixture(t)

	w, err := New(root, Options{Glob: NewGlobOverride("src/c.py")})
	require.NoError(t, err)

	var paths []string
	for entry, err := range w.Entries() {
		require.NoError(t, err)
		paths = append(paths, entry.Path)
	}
	assert.Equal(t, []string{filepath.Join(root, "src", "c.py")}, paths)
}

func TestEntries_SymlinksNotFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	isolateGitConfig(t)
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"linked.py": "x", "dir/inner.py": "x"})
	writeTree(t, root, map[string]string{"real.py": "x"})
	require.NoError(t, os.Symlink(filepath.Join(outside, "linked.py"), filepath.Join(root, "link.py")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "dir"), filepath.Join(root, "linkdir")))

	w, err := New(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"real.py"}, relPaths(t, w))
}

func TestEntries_RootIsFile(t *testing.T) {
	root := fixture(t)
	file := filepath.Join(root, "src", "c.py")

	w, err := New(file, Options{})
	require.NoError(t, err)

	var got []Entry
	for entry, err := range w.Entries() {
		require.NoError(t, err)
		got = append(got, entry)
	}
	assert.Equal(t, []Entry{{Path: file, RelPath: "c.py"}}, got)

	w, err = New(file, Options{Types: NewTypeFilter([]string{"js"})})
	require.NoError(t, err)
	assert.Empty(t, relPaths(t, w))
}

func TestNew_NotFound(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestEntries_UnreadableDirectoryIsTraversalError(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x", "locked/b.txt": "x"})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	w, err := New(root, Options{})
	require.NoError(t, err)

	var walkErr error
	var seen []string
	for entry, err := range w.Entries() {
		if err != nil {
			walkErr = err
			break
		}
		seen = append(seen, entry.RelPath)
	}

	require.Error(t, walkErr)
	assert.True(t, stderrors.Is(walkErr, errors.ErrTraversal))
	assert.Equal(t, []string{"a.txt"}, seen)
}

func TestEntries_ConsumerCanStop(t *testing.T) {
	root := fixture(t)
	w, err := New(root, Options{})
	require.NoError(t, err)

	count := 0
	for range w.Entries() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}
