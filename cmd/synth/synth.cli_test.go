package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliResult captures one run of the CLI
type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), FilePermissions))
	return path
}

// ==================== run() dispatch tests ====================

func TestRun_Dispatch(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{name: "no args shows help", args: nil, code: ExitCodeSuccess, contains: CLIName},
		{name: "help", args: []string{CmdNameHelp}, code: ExitCodeSuccess, contains: CmdNameRender},
		{name: "help render", args: []string{CmdNameHelp, CmdNameRender}, code: ExitCodeSuccess, contains: HelpRenderUsage},
		{name: "help validate", args: []string{CmdNameHelp, CmdNameValidate}, code: ExitCodeSuccess, contains: HelpValidateUsage},
		{name: "help version", args: []string{CmdNameHelp, CmdNameVersion}, code: ExitCodeSuccess, contains: HelpVersionUsage},
		{name: "help help", args: []string{CmdNameHelp, CmdNameHelp}, code: ExitCodeSuccess, contains: HelpHelpUsage},
		{name: "help unknown", args: []string{CmdNameHelp, "bogus"}, code: ExitCodeUsageError, contains: ErrMsgUnknownCommand},
		{name: "unknown command", args: []string{"bogus"}, code: ExitCodeUsageError, contains: ErrMsgUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			assert.Equal(t, tt.code, res.code)
			assert.Contains(t, res.stdout, tt.contains)
		})
	}
}

// ==================== render tests ====================

func TestRender_Dialects(t *testing.T) {
	dir := t.TempDir()
	django := writeTestFile(t, dir, "page.html", "Hello {{ name|upper }}!")
	ssi := writeTestFile(t, dir, "page.shtml", `Hi <!--#echo var="name" -->`)
	tmpl := writeTestFile(t, dir, "page.tmpl", "<TMPL_LOOP rows><TMPL_VAR n>;</TMPL_LOOP>")
	yamlData := writeTestFile(t, dir, "data.yaml", "rows:\n  - n: 1\n  - n: 2\n")
	jsonData := writeTestFile(t, dir, "data.json", `{"name": "ada"}`)

	tests := []struct {
		name     string
		args     []string
		stdin    string
		expected string
	}{
		{name: "django inline json", args: []string{"-t", django, "-d", `{"name": "ada"}`}, expected: "Hello ADA!"},
		{name: "django json file", args: []string{"-t", django, "-f", jsonData}, expected: "Hello ADA!"},
		{name: "ssi", args: []string{"-t", ssi, "-D", "ssi", "-d", `{"name": "Bob"}`}, expected: "Hi Bob"},
		{name: "tmpl yaml file", args: []string{"--template", tmpl, "--dialect", "tmpl", "--data-file", yamlData}, expected: "1;2;"},
		{name: "stdin", args: []string{"-t", "-"}, stdin: "{{ 2|add:3 }}", expected: "5"},
		{name: "no data", args: []string{"-t", "-"}, stdin: "[{{ missing }}]", expected: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.stdin, append([]string{CmdNameRender}, tt.args...)...)
			require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
			assert.Equal(t, tt.expected, res.stdout)
		})
	}
}

func TestRender_Includes(t *testing.T) {
	dir := t.TempDir()
	page := writeTestFile(t, dir, "page.html", "{% include 'header.html' %}body")
	writeTestFile(t, dir, "header.html", "[{{ title }}]")

	partials := t.TempDir()
	writeTestFile(t, partials, "header.html", "<{{ title }}>")

	t.Run("template directory by default", func(t *testing.T) {
		res := runCLI(t, "", CmdNameRender, "-t", page, "-d", `{"title": "T"}`)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Equal(t, "[T]body", res.stdout)
	})

	t.Run("include directories replace the default", func(t *testing.T) {
		res := runCLI(t, "", CmdNameRender, "-t", page, "-I", partials, "-d", `{"title": "T"}`)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Equal(t, "<T>body", res.stdout)
	})

	t.Run("dir driver", func(t *testing.T) {
		res := runCLI(t, "", CmdNameRender, "-t", page, "--source", "dir", "--dsn", partials, "-d", `{"title": "T"}`)
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Equal(t, "<T>body", res.stdout)
	})

	t.Run("missing include", func(t *testing.T) {
		res := runCLI(t, "", CmdNameRender, "-t", page, "--source", "memory")
		assert.Equal(t, ExitCodeError, res.code)
		assert.Contains(t, res.stderr, ErrMsgRenderFailed)
	})
}

func TestRender_OutputFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	res := runCLI(t, "{{ n }}", CmdNameRender, "-t", "-", "-d", `{"n": 7}`, "-o", out)
	require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "7", string(content))
}

func TestRender_Options(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		res := runCLI(t, "{{ missing }}", CmdNameRender, "-t", "-", "--strict")
		assert.Equal(t, ExitCodeError, res.code)
		assert.Contains(t, res.stderr, ErrMsgRenderFailed)
	})

	t.Run("innermost policy", func(t *testing.T) {
		src := "{% with a=1 %}{% set x 'in' %}{% endwith %}[{{ x }}]"
		res := runCLI(t, src, CmdNameRender, "-t", "-", "--policy", "innermost")
		require.Equal(t, ExitCodeSuccess, res.code, res.stderr)
		assert.Equal(t, "[]", res.stdout)
	})

	t.Run("verbose logs to stderr", func(t *testing.T) {
		res := runCLI(t, "x", CmdNameRender, "-t", "-", "-v")
		require.Equal(t, ExitCodeSuccess, res.code)
		assert.Equal(t, "x", res.stdout)
		assert.NotEmpty(t, res.stderr)
	})
}

func TestRender_Errors(t *testing.T) {
	dir := t.TempDir()
	page := writeTestFile(t, dir, "page.html", "{{ x }}")
	badYAML := writeTestFile(t, dir, "bad.yaml", "a: [1, 2\n")

	tests := []struct {
		name  string
		args  []string
		stdin string
		code  int
	}{
		{name: "missing template flag", args: nil, code: ExitCodeUsageError},
		{name: "unknown flag", args: []string{"-t", page, "--nope"}, code: ExitCodeUsageError},
		{name: "bad policy", args: []string{"-t", page, "--policy", "sideways"}, code: ExitCodeUsageError},
		{name: "dsn without source", args: []string{"-t", page, "--dsn", "x"}, code: ExitCodeUsageError},
		{name: "missing file", args: []string{"-t", filepath.Join(dir, "absent.html")}, code: ExitCodeInputError},
		{name: "invalid json", args: []string{"-t", page, "-d", "{not json"}, code: ExitCodeInputError},
		{name: "invalid yaml", args: []string{"-t", page, "-f", badYAML}, code: ExitCodeInputError},
		{name: "unknown source driver", args: []string{"-t", page, "--source", "ftp"}, code: ExitCodeError},
		{name: "unknown dialect", args: []string{"-t", page, "-D", "latex"}, code: ExitCodeError},
		{name: "syntax error", args: []string{"-t", "-"}, stdin: "{% if x %}", code: ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.stdin, append([]string{CmdNameRender}, tt.args...)...)
			assert.Equal(t, tt.code, res.code)
			assert.NotEmpty(t, res.stderr)
		})
	}
}

// ==================== validate tests ====================

func TestValidate_Text(t *testing.T) {
	res := runCLI(t, "{% for x in xs %}{{ x }}{% endfor %}", CmdNameValidate, "-t", "-")
	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, ValidationTextSuccess)

	res = runCLI(t, "line one\n{% for x in xs %}", CmdNameValidate, "-t", "-")
	assert.Equal(t, ExitCodeValidationError, res.code)
	assert.Contains(t, res.stdout, ValidationTextIssueHeader)
	assert.Contains(t, res.stdout, SeverityNameError)
}

func TestValidate_JSON(t *testing.T) {
	res := runCLI(t, "<TMPL_IF a>x", CmdNameValidate, "-t", "-", "-D", "tmpl", "-F", OutputFormatJSON)
	assert.Equal(t, ExitCodeValidationError, res.code)

	var out validationOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.False(t, out.Valid)
	assert.Equal(t, "tmpl", out.Dialect)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "unbalanced_block", out.Issues[0].Kind)
	assert.Equal(t, SeverityNameError, out.Issues[0].Severity)

	res = runCLI(t, `<!--#echo var="a" -->`, CmdNameValidate, "-t", "-", "-D", "ssi", "-F", OutputFormatJSON)
	assert.Equal(t, ExitCodeSuccess, res.code)
	out = validationOutput{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.True(t, out.Valid)
	assert.Equal(t, "ssi", out.Dialect)
	assert.Empty(t, out.Issues)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "missing template", args: nil, code: ExitCodeUsageError},
		{name: "bad format", args: []string{"-t", "-", "-F", "xml"}, code: ExitCodeUsageError},
		{name: "unknown dialect", args: []string{"-t", "-", "-D", "latex"}, code: ExitCodeUsageError},
		{name: "missing file", args: []string{"-t", filepath.Join(t.TempDir(), "absent")}, code: ExitCodeInputError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "x", append([]string{CmdNameValidate}, tt.args...)...)
			assert.Equal(t, tt.code, res.code)
		})
	}
}

// ==================== version tests ====================

func TestVersion(t *testing.T) {
	res := runCLI(t, "", CmdNameVersion)
	assert.Equal(t, ExitCodeSuccess, res.code)
	assert.Contains(t, res.stdout, "go-synth version")

	res = runCLI(t, "", CmdNameVersion, "-F", OutputFormatJSON)
	assert.Equal(t, ExitCodeSuccess, res.code)
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	res = runCLI(t, "", CmdNameVersion, "-F", "xml")
	assert.Equal(t, ExitCodeUsageError, res.code)
}

// ==================== helper tests ====================

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	yml := writeTestFile(t, dir, "d.yml", "name: ada\ntags: [a, b]\n")
	null := writeTestFile(t, dir, "null.json", "null")

	data, err := loadData("", yml)
	require.NoError(t, err)
	assert.Equal(t, "ada", data["name"])
	assert.Equal(t, []any{"a", "b"}, data["tags"])

	data, err = loadData("", null)
	require.NoError(t, err)
	assert.NotNil(t, data)

	data, err = loadData("", "")
	require.NoError(t, err)
	assert.Empty(t, data)

	data, err = loadData(`{"n": 1}`, yml)
	require.NoError(t, err)
	assert.Equal(t, "ada", data["name"], "the data file wins over inline JSON")
}
