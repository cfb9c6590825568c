package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qri-io/treediff"
	"github.com/qri-io/treediff/internal/document"
)

const (
	leftJSON  = `{"name": "a", "tags": ["x"]}`
	rightJSON = `{"name": "b", "tags": ["x", "y"]}`

	changesJSON = `[
  {"kind": "E", "path": ["name"], "lhs": "a", "rhs": "b"},
  {"kind": "A", "path": ["tags"], "index": 1, "item": {"kind": "N", "rhs": "y"}}
]`
)

// execute runs the command line with args, isolated from the user's home
// directory config
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDiffPretty(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)
	right := writeFile(t, dir, "right.json", rightJSON)

	out, _, err := execute(t, "diff", left, right)
	require.NoError(t, err)
	assert.Equal(t, "~/name: \"a\" => \"b\"\nA/tags:\n  +/1: \"y\"\n", out)
}

func TestDiffJSON(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)
	right := writeFile(t, dir, "right.yaml", "name: b\ntags:\n  - x\n  - y\n")

	out, _, err := execute(t, "diff", "--format", "json", left, right)
	require.NoError(t, err)
	assert.JSONEq(t, changesJSON, out)
}

func TestDiffNoChanges(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)

	out, _, err := execute(t, "diff", "-f", "json", left, left)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestDiffStats(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)
	right := writeFile(t, dir, "right.json", rightJSON)

	out, _, err := execute(t, "diff", "--stats", left, right)
	require.NoError(t, err)
	assert.Equal(t, "~/name: \"a\" => \"b\"\nA/tags:\n  +/1: \"y\"\n"+
		"+1 element. 1 insert. 0 deletes. 1 update. 1 array edit.\n", out)

	// stats stay out of json output
	out, errOut, err := execute(t, "diff", "--stats", "--format", "json", left, right)
	require.NoError(t, err)
	assert.JSONEq(t, changesJSON, out)
	assert.Equal(t, "+1 element. 1 insert. 0 deletes. 1 update. 1 array edit.\n", errOut)
}

func TestDiffIgnore(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)
	right := writeFile(t, dir, "right.json", rightJSON)

	out, _, err := execute(t, "diff", "--ignore", `Keys("name")`, left, right)
	require.NoError(t, err)
	assert.Equal(t, "A/tags:\n  +/1: \"y\"\n", out)

	out, _, err = execute(t, "diff", "--ignore", `Keys("name")`, "--ignore", `Under("/tags")`, left, right)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestDiffOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", `{"tags": ["x", "y", "z"]}`)
	right := writeFile(t, dir, "right.json", `{"tags": ["z", "x", "y"]}`)

	out, _, err := execute(t, "diff", left, right)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, _, err = execute(t, "diff", "--order-independent", left, right)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestDiffOutputFile(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)
	right := writeFile(t, dir, "right.json", rightJSON)
	changes := filepath.Join(dir, "changes.json")

	out, _, err := execute(t, "diff", "-f", "json", "-o", changes, left, right)
	require.NoError(t, err)
	assert.Equal(t, "", out)

	data, err := os.ReadFile(changes)
	require.NoError(t, err)
	assert.JSONEq(t, changesJSON, string(data))
}

func TestDiffSettingsFromEnvAndConfig(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)
	right := writeFile(t, dir, "right.json", rightJSON)

	t.Run("env", func(t *testing.T) {
		t.Setenv("TREEDIFF_FORMAT", "json")
		out, _, err := execute(t, "diff", left, right)
		require.NoError(t, err)
		assert.JSONEq(t, changesJSON, out)
	})

	t.Run("config file", func(t *testing.T) {
		cfg := writeFile(t, dir, "config.yaml", "format: json\nignore:\n  - Keys(\"tags\")\n")
		out, _, err := execute(t, "diff", "--config", cfg, left, right)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"kind": "E", "path": ["name"], "lhs": "a", "rhs": "b"}]`, out)
	})

	t.Run("flags win", func(t *testing.T) {
		t.Setenv("TREEDIFF_FORMAT", "json")
		out, _, err := execute(t, "diff", "--format", "pretty", left, right)
		require.NoError(t, err)
		assert.Equal(t, "~/name: \"a\" => \"b\"\nA/tags:\n  +/1: \"y\"\n", out)
	})
}

func TestDiffErrors(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", leftJSON)
	bad := writeFile(t, dir, "bad.json", `{"name": `)

	cases := []struct {
		description string
		args        []string
	}{
		{"one argument", []string{"diff", left}},
		{"missing file", []string{"diff", left, filepath.Join(dir, "nope.json")}},
		{"invalid document", []string{"diff", left, bad}},
		{"unknown format", []string{"diff", "--format", "xml", left, left}},
		{"invalid ignore expression", []string{"diff", "--ignore", "Key ==", left, left}},
		{"missing config", []string{"diff", "--config", filepath.Join(dir, "nope.yaml"), left, left}},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			_, _, err := execute(t, c.args...)
			assert.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	changes := writeFile(t, dir, "changes.json", changesJSON)

	t.Run("json", func(t *testing.T) {
		target := writeFile(t, dir, "target.json", leftJSON)
		out, _, err := execute(t, "apply", target, changes)
		require.NoError(t, err)
		assert.Equal(t, `{
  "name": "b",
  "tags": [
    "x",
    "y"
  ]
}
`, out)
	})

	t.Run("yaml", func(t *testing.T) {
		target := writeFile(t, dir, "target.yaml", "name: a\ntags:\n  - x\n")
		out, _, err := execute(t, "apply", target, changes)
		require.NoError(t, err)
		assert.Equal(t, "name: b\ntags:\n  - x\n  - y\n", out)
	})

	t.Run("output file", func(t *testing.T) {
		target := writeFile(t, dir, "target.json", leftJSON)
		dest := filepath.Join(dir, "patched.yaml")
		out, _, err := execute(t, "apply", "--output", dest, target, changes)
		require.NoError(t, err)
		assert.Equal(t, "", out)

		got, err := document.Load(dest)
		require.NoError(t, err)
		want, err := document.Decode([]byte(rightJSON))
		require.NoError(t, err)
		assert.Empty(t, treediff.Diff(want, got))
	})

	t.Run("invalid changes", func(t *testing.T) {
		target := writeFile(t, dir, "target.json", leftJSON)
		bad := writeFile(t, dir, "bad.json", `[{"kind": "Z"}]`)
		_, _, err := execute(t, "apply", target, bad)
		assert.Error(t, err)
	})
}

func TestRevert(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "left.json", leftJSON)
	target := writeFile(t, dir, "right.json", rightJSON)
	changes := writeFile(t, dir, "changes.json", changesJSON)

	out, _, err := execute(t, "revert", target, source, changes)
	require.NoError(t, err)
	assert.Equal(t, `{
  "name": "a",
  "tags": [
    "x"
  ]
}
`, out)

	_, _, err = execute(t, "revert", target, changes)
	assert.Error(t, err)
}

func TestDiffApplyRevertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.yaml", `
name: service
replicas: 1
ports: [80, 443, 8080]
labels:
  app: web
  tier: frontend
`)
	right := writeFile(t, dir, "right.yaml", `
name: service
replicas: 3
ports: [80]
labels:
  app: web
  team: platform
`)
	changes := filepath.Join(dir, "changes.json")
	patched := filepath.Join(dir, "patched.yaml")
	reverted := filepath.Join(dir, "reverted.yaml")

	_, _, err := execute(t, "diff", "-f", "json", "-o", changes, left, right)
	require.NoError(t, err)
	_, _, err = execute(t, "apply", "-o", patched, left, changes)
	require.NoError(t, err)
	_, _, err = execute(t, "revert", "-o", reverted, patched, left, changes)
	require.NoError(t, err)

	load := func(path string) interface{} {
		v, err := document.Load(path)
		require.NoError(t, err)
		return v
	}
	assert.Empty(t, treediff.Diff(load(right), load(patched)), "patched document should match right")
	assert.Empty(t, treediff.Diff(load(left), load(reverted)), "reverted document should match left")
}

func TestApplyOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.json", `{"list": [{"id": 1, "v": "a"}, {"id": 2, "v": "b"}, 3]}`)
	right := writeFile(t, dir, "right.json", `{"list": [3, {"id": 2, "v": "c"}, {"id": 1, "v": "a"}, 4]}`)
	changes := filepath.Join(dir, "changes.json")
	patched := filepath.Join(dir, "patched.json")

	_, _, err := execute(t, "diff", "--order-independent", "-f", "json", "-o", changes, left, right)
	require.NoError(t, err)
	_, _, err = execute(t, "apply", "--order-independent", "-o", patched, left, changes)
	require.NoError(t, err)

	out, _, err := execute(t, "diff", "--order-independent", right, patched)
	require.NoError(t, err)
	assert.Equal(t, "", out, "patched document should match right in any order")
}
