package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veld-lang/veld/pkg/cli"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = cli.Run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestNoArguments(t *testing.T) {
	code, _, stderr := run()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "no input file")
	assert.Contains(t, stderr, "usage:")
}

func TestUnknownFlag(t *testing.T) {
	code, _, stderr := run("--frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown flag --frobnicate")
}

func TestMissingInputFile(t *testing.T) {
	code, _, stderr := run(filepath.Join(t.TempDir(), "absent.veld"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "veld:")
}

func TestCheckIsSilentOnSuccess(t *testing.T) {
	src := writeSource(t, "main.veld", "val x = 1\nprintln(x)\n")
	code, stdout, stderr := run("--check", "--no-color", src)
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestCheckReportsAffineViolation(t *testing.T) {
	src := writeSource(t, "main.veld", "val x = 1\nval a = x + 1\nval b = x + 1\n")
	code, _, stderr := run("--check", "--no-color", src)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "T002")
	assert.Contains(t, stderr, "use of moved value x")
}

func TestParseErrorExitCode(t *testing.T) {
	src := writeSource(t, "main.veld", "val = 1\n")
	code, _, stderr := run("--check", "--no-color", src)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "P002")
}

func TestCompileWritesModule(t *testing.T) {
	src := writeSource(t, "main.veld", `println("hi")`)
	out := filepath.Join(t.TempDir(), "out.wat")

	code, _, stderr := run("--no-cache", "--no-color", src, out)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	wat, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(wat), "(module"))
	assert.Contains(t, string(wat), `(export "_start"`)
}

func TestCompileDefaultOutputPath(t *testing.T) {
	src := writeSource(t, "main.veld", "println(1)")

	code, _, stderr := run("--no-cache", "--no-color", src)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	wat, err := os.ReadFile(strings.TrimSuffix(src, ".veld") + ".wat")
	require.NoError(t, err)
	assert.Contains(t, string(wat), "(module")
}

func TestCompileErrorWritesNothing(t *testing.T) {
	src := writeSource(t, "main.veld", "println(ghost)")
	out := filepath.Join(t.TempDir(), "out.wat")

	code, _, stderr := run("--no-cache", "--no-color", src, out)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "T006")
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestFormatMode(t *testing.T) {
	src := writeSource(t, "main.veld", "val  x=1")
	code, stdout, stderr := run("--fmt", "--no-color", src)
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, "val x = 1\n", stdout)
}

func TestAstTreeMode(t *testing.T) {
	src := writeSource(t, "main.veld", "val x = 1 double\nfun double(n: Int) -> Int = { n * 2 }\nprintln(x)\n")
	code, stdout, stderr := run("--ast-tree", "--no-color", src)
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Program")
	assert.Contains(t, stdout, "osv=true")
}

func TestAstJSONMode(t *testing.T) {
	src := writeSource(t, "main.veld", "val x = 1\nprintln(x)\n")
	code, stdout, stderr := run("--ast", "--no-color", src)
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, `"node": "Program"`)
}

func TestProjectOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "build")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "veld.yaml"), []byte("output: "+outDir+"\n"), 0o644))
	src := filepath.Join(dir, "main.veld")
	require.NoError(t, os.WriteFile(src, []byte("println(1)"), 0o644))

	code, _, stderr := run("--no-cache", "--no-color", src)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	wat, err := os.ReadFile(filepath.Join(outDir, "main.wat"))
	require.NoError(t, err)
	assert.Contains(t, string(wat), "(module")
}
