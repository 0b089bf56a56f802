package synth_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/go-synth"
)

func TestDjangoFilters(t *testing.T) {
	data := map[string]any{
		"xs":    []any{"a", "b", "c"},
		"ys":    []any{"d"},
		"empty": []any{},
		"nil":   nil,
		"t":     true,
		"f":     false,
		"text":  "one two  three",
	}

	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{name: "upper", source: "{{ 'hello'|upper }}", expected: "HELLO"},
		{name: "lower", source: "{{ 'HeLLo'|lower }}", expected: "hello"},
		{name: "title", source: "{{ 'hello world'|title }}", expected: "Hello World"},
		{name: "capfirst", source: "{{ 'ada lovelace'|capfirst }}", expected: "Ada lovelace"},
		{name: "default on undefined", source: "{{ missing|default:'x' }}", expected: "x"},
		{name: "default keeps truthy", source: "{{ 'v'|default:'x' }}", expected: "v"},
		{name: "default on empty list", source: "{{ empty|default:'none' }}", expected: "none"},
		{name: "default_if_none on nil", source: "{{ nil|default_if_none:'x' }}", expected: "x"},
		{name: "default_if_none keeps empty string", source: "[{{ ''|default_if_none:'x' }}]", expected: "[]"},
		{name: "length", source: "{{ xs|length }}", expected: "3"},
		{name: "length of string", source: "{{ 'héllo'|length }}", expected: "5"},
		{name: "join", source: "{{ xs|join:', ' }}", expected: "a, b, c"},
		{name: "first and last", source: "{{ xs|first }}{{ xs|last }}", expected: "ac"},
		{name: "first of empty", source: "[{{ empty|first }}]", expected: "[]"},
		{name: "add ints", source: "{{ 2|add:3 }}", expected: "5"},
		{name: "add floats", source: "{{ 1.1|add:2.2 }}", expected: "3.3"},
		{name: "add numeric string", source: "{{ '2'|add:3 }}", expected: "5"},
		{name: "add strings", source: "{{ 'ab'|add:'cd' }}", expected: "abcd"},
		{name: "add sequences", source: "{{ xs|add:ys }}", expected: "[a, b, c, d]"},
		{name: "cut", source: "{{ 'a b c'|cut:' ' }}", expected: "abc"},
		{name: "yesno true", source: "{{ t|yesno }}", expected: "yes"},
		{name: "yesno false", source: "{{ f|yesno }}", expected: "no"},
		{name: "yesno none", source: "{{ nil|yesno }}", expected: "maybe"},
		{name: "yesno custom", source: "{{ f|yesno:'on,off' }}", expected: "off"},
		{name: "wordcount", source: "{{ text|wordcount }}", expected: "3"},
		{name: "truncatewords", source: "{{ text|truncatewords:2 }}", expected: "one two …"},
		{name: "truncatewords short input", source: "{{ 'one'|truncatewords:2 }}", expected: "one"},
		{name: "urlencode", source: "{{ 'a b/c'|urlencode }}", expected: "a%20b%2Fc"},
		{name: "floatformat default", source: "{{ 34.23234|floatformat }}", expected: "34.2"},
		{name: "floatformat whole", source: "{{ 34.0|floatformat }}", expected: "34"},
		{name: "floatformat rounds", source: "{{ 34.26|floatformat }}", expected: "34.3"},
		{name: "floatformat digits", source: "{{ 3.14159|floatformat:3 }}", expected: "3.142"},
		{name: "intcomma", source: "{{ 1234567|intcomma }}", expected: "1,234,567"},
		{name: "intcomma small", source: "{{ 999|intcomma }}", expected: "999"},
		{name: "ordinal", source: "{{ 1|ordinal }} {{ 22|ordinal }} {{ 13|ordinal }}", expected: "1st 22nd 13th"},
		{name: "filesizeformat", source: "{{ 1500|filesizeformat }}", expected: "1.5 kB"},
		{name: "filesizeformat zero", source: "{{ 0|filesizeformat }}", expected: "0 B"},
		{name: "markdown", source: "{{ '**hi**'|markdown }}", expected: "<p><strong>hi</strong></p>\n"},
		{name: "stringformat", source: "{{ 3|stringformat:'03d' }}", expected: "003"},
		{name: "divisibleby", source: "{{ 10|divisibleby:5 }} {{ 10|divisibleby:3 }}", expected: "True False"},
		{name: "escape", source: "{{ '<a>&'|escape }}", expected: "&lt;a&gt;&amp;"},
		{name: "striptags", source: "{{ '<b>x</b>'|striptags }}", expected: "x"},
		{name: "cut then linebreaksbr", source: "{{ text|cut:'  '|linebreaksbr }}", expected: "one twothree"},
		{name: "chain", source: "{{ xs|join:'-'|upper|add:'!' }}", expected: "A-B-C!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderDjango(t, tt.source, data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDjangoFilters_LargeNumbers(t *testing.T) {
	result, err := renderDjango(t, "{{ x|add:1 }}", map[string]any{"x": math.MaxInt64})
	require.NoError(t, err)
	assert.Equal(t, "9223372036850000000", result)

	result, err = renderDjango(t, "{{ x|add:y }}", map[string]any{"x": math.MinInt64, "y": -1})
	require.NoError(t, err)
	assert.Equal(t, "-9223372036850000000", result)

	result, err = renderDjango(t, "{{ x|intcomma }}", map[string]any{"x": 1e25})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "10,000,000,000,000,000,000"), "got %s", result)
	assert.NotContains(t, result, "-")
}

func TestDjangoFilters_LineBreaks(t *testing.T) {
	result, err := renderDjango(t, "{{ s|linebreaksbr }}", map[string]any{"s": "a\nb"})

	require.NoError(t, err)
	assert.Equal(t, "a<br>b", result)
}

func TestDjangoFilters_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "join without separator", source: "{{ xs|join }}"},
		{name: "join on a number", source: "{{ 3|join:',' }}"},
		{name: "add mismatched", source: "{{ 'a'|add:1 }}"},
		{name: "add to bool", source: "{{ t|add:xs }}"},
		{name: "divisibleby zero", source: "{{ 4|divisibleby:0 }}"},
		{name: "default without argument", source: "{{ x|default }}"},
		{name: "truncatewords not a number", source: "{{ 'a b'|truncatewords:'x' }}"},
	}

	data := map[string]any{"xs": []any{1}, "t": true}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := renderDjango(t, tt.source, data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, synth.ErrRender), "got %v", err)
			assert.Equal(t, synth.KindNameRender, synth.ErrorKind(err))
		})
	}
}
