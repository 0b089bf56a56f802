package synth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/go-synth"
)

func TestSSI_Directives(t *testing.T) {
	source := synth.NewMapSource(map[string]string{
		"header.html": "<h1><!--#echo var=\"title\" --></h1>",
		"footer.html": "<!--#set var=\"footer_seen\" value=\"yes\" -->--",
	})
	engine := synth.MustNew(synth.WithTemplateSource(source))

	data := map[string]any{
		"name":  "Ada",
		"title": "Home",
		"html":  "<b>",
		"user":  map[string]any{"name": "Bob"},
	}

	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{name: "echo", source: `Hi <!--#echo var="name" -->!`, expected: "Hi Ada!"},
		{name: "echo undefined", source: `<!--#echo var="missing" -->`, expected: "(none)"},
		{name: "echo path", source: `<!--#echo var="user.name" -->`, expected: "Bob"},
		{name: "echo entity encoding", source: `<!--#echo var="html" encoding="entity" -->`, expected: "&lt;b&gt;"},
		{name: "echo url encoding", source: `<!--#echo var="title" encoding="url" -->`, expected: "Home"},
		{name: "config echomsg", source: `<!--#config echomsg="[unset]" --><!--#echo var="missing" -->`, expected: "[unset]"},
		{name: "set with substitution", source: `<!--#set var="greeting" value="Hello $name" --><!--#echo var="greeting" -->`, expected: "Hello Ada"},
		{name: "set with braces", source: `<!--#set var="x" value="${name}s and ${user.name}s" --><!--#echo var="x" -->`, expected: "Adas and Bobs"},
		{name: "set undefined reference", source: `<!--#set var="x" value="[$missing]" --><!--#echo var="x" -->`, expected: "[]"},
		{name: "if equal", source: `<!--#if expr="$name = Ada" -->yes<!--#else -->no<!--#endif -->`, expected: "yes"},
		{name: "if not equal", source: `<!--#if expr="$name != Ada" -->yes<!--#else -->no<!--#endif -->`, expected: "no"},
		{name: "if quoted operand", source: `<!--#if expr="$title == 'Home'" -->home<!--#endif -->`, expected: "home"},
		{name: "if regex", source: `<!--#if expr="$name = /^A/" -->match<!--#endif -->`, expected: "match"},
		{name: "if negated regex", source: `<!--#if expr="$name != /^B/" -->ok<!--#endif -->`, expected: "ok"},
		{name: "if undefined is false", source: `<!--#if expr="$missing" -->yes<!--#else -->no<!--#endif -->`, expected: "no"},
		{name: "elif", source: `<!--#if expr="$name = Bob" -->bob<!--#elif expr="$name = Ada" -->ada<!--#else -->other<!--#endif -->`, expected: "ada"},
		{name: "boolean operators", source: `<!--#if expr="($name = Ada || $name = Bob) && !$missing" -->ok<!--#endif -->`, expected: "ok"},
		{name: "string ordering", source: `<!--#if expr="$name < Bob" -->before<!--#endif -->`, expected: "before"},
		{name: "include virtual", source: `<!--#include virtual="/header.html" -->`, expected: "<h1>Home</h1>"},
		{name: "include file shares context", source: `<!--#include file="footer.html" --><!--#echo var="footer_seen" -->`, expected: "--yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Render(context.Background(), tt.source, synth.DialectSSI, data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSSI_PrintEnv(t *testing.T) {
	engine := synth.MustNew()

	result, err := engine.Render(context.Background(),
		`<!--#set var="c" value="3" --><!--#printenv -->`, synth.DialectSSI,
		map[string]any{"b": "x", "a": 1})

	require.NoError(t, err)
	assert.Equal(t, "a=1\nb=x\nc=3\n", result)
}

func TestSSI_StrictEcho(t *testing.T) {
	engine := synth.MustNew(synth.WithStrictVariables(true))

	_, err := engine.Render(context.Background(), `<!--#echo var="missing" -->`, synth.DialectSSI, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, synth.ErrUndefinedVariable))
}

func TestSSI_ParseErrors(t *testing.T) {
	engine := synth.MustNew()

	tests := []struct {
		name   string
		source string
	}{
		{name: "echo without var", source: `<!--#echo -->`},
		{name: "echo unknown attribute", source: `<!--#echo var="a" colour="red" -->`},
		{name: "echo unknown encoding", source: `<!--#echo var="a" encoding="base64" -->`},
		{name: "set without value", source: `<!--#set var="a" -->`},
		{name: "positional argument", source: `<!--#set a b -->`},
		{name: "if without expr", source: `<!--#if -->x<!--#endif -->`},
		{name: "unbalanced parenthesis", source: `<!--#if expr="($a = b" -->x<!--#endif -->`},
		{name: "unclosed regex", source: `<!--#if expr="$a = /b" -->x<!--#endif -->`},
		{name: "invalid regex", source: `<!--#if expr="$a = /(/" -->x<!--#endif -->`},
		{name: "elif after else", source: `<!--#if expr="a" -->x<!--#else -->y<!--#elif expr="b" -->z<!--#endif -->`},
		{name: "include both attributes", source: `<!--#include file="a" virtual="b" -->`},
		{name: "config without echomsg", source: `<!--#config -->`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Parse(tt.source, synth.DialectSSI)
			require.Error(t, err)
			assert.True(t, errors.Is(err, synth.ErrSyntax), "got %v", err)
		})
	}
}

func TestSSI_UnclosedIf(t *testing.T) {
	engine := synth.MustNew()

	_, err := engine.Parse(`<!--#if expr="a" -->x`, synth.DialectSSI)

	require.Error(t, err)
	assert.True(t, errors.Is(err, synth.ErrUnbalancedBlock))
}
