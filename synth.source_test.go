package synth_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/go-synth"
)

func TestMapSource(t *testing.T) {
	ctx := context.Background()
	seed := map[string]string{"a": "A"}
	source := synth.NewMapSource(seed)
	seed["b"] = "B"

	got, err := source.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", got)

	_, err = source.Get(ctx, "b")
	require.Error(t, err, "the seed map is copied")
	assert.True(t, errors.Is(err, synth.ErrLookup))
	assert.Equal(t, "b", errMeta(t, err, synth.MetaKeyName))

	source.Set("c", "C")
	source.Set("a", "A2")
	assert.Equal(t, []string{"a", "c"}, source.Names())

	got, err = source.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A2", got)

	assert.True(t, source.Delete("c"))
	assert.False(t, source.Delete("c"))
	assert.Equal(t, []string{"a"}, source.Names())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = source.Get(cancelled, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirSource(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "page.html", "first page")
	writeFile(t, second, "page.html", "second page")
	writeFile(t, second, "parts/footer.html", "footer")

	source := synth.NewDirSource(nil, first, second)
	assert.Equal(t, []string{first, second}, source.Dirs())

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{name: "first directory wins", template: "page.html", expected: "first page"},
		{name: "falls through to later directory", template: "parts/footer.html", expected: "footer"},
		{name: "dot prefix", template: "./page.html", expected: "first page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := source.Get(context.Background(), tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDirSource_Rejects(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "inner")
	writeFile(t, dir, "secret.txt", "secret")
	require.NoError(t, os.MkdirAll(inner, 0o755))

	source := synth.NewDirSource(nil, inner)

	tests := []struct {
		name     string
		template string
	}{
		{name: "missing file", template: "absent.html"},
		{name: "parent traversal", template: "../secret.txt"},
		{name: "absolute path", template: "/etc/passwd"},
		{name: "empty name", template: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.Get(context.Background(), tt.template)
			require.Error(t, err)
			assert.True(t, errors.Is(err, synth.ErrLookup), "got %v", err)
		})
	}
}

func TestDirSource_WithEngine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeting.django", "Hello {{ name }}{% include 'sig.django' %}")
	writeFile(t, dir, "sig.django", ", from {{ sender }}")

	engine := synth.MustNew(synth.WithTemplateSource(synth.NewDirSource(nil, dir)))
	out, err := engine.RenderNamed(context.Background(), "greeting.django", synth.DialectDjango,
		map[string]any{"name": "Ada", "sender": "Bob"})

	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, from Bob", out)
}

func TestTemplateSourceFunc(t *testing.T) {
	calls := 0
	source := synth.TemplateSourceFunc(func(_ context.Context, name string) (string, error) {
		calls++
		if name == "x" {
			return "[{{ v }}]", nil
		}
		return "", synth.NewTemplateNotFoundError(name)
	})

	engine := synth.MustNew(synth.WithTemplateSource(source))
	out, err := engine.Render(context.Background(), "{% include 'x' %}{% include 'x' %}", synth.DialectDjango,
		map[string]any{"v": 1})

	require.NoError(t, err)
	assert.Equal(t, "[1][1]", out)
	assert.Positive(t, calls)
}

func TestOpenSource(t *testing.T) {
	assert.Subset(t, synth.SourceDrivers(), []string{
		synth.SourceDriverNameDir,
		synth.SourceDriverNameMemory,
		synth.SourceDriverNamePostgres,
	})

	t.Run("memory", func(t *testing.T) {
		source, err := synth.OpenSource(synth.SourceDriverNameMemory, "")
		require.NoError(t, err)
		mem, ok := source.(*synth.MapSource)
		require.True(t, ok)
		assert.Empty(t, mem.Names())
	})

	t.Run("dir", func(t *testing.T) {
		first := t.TempDir()
		second := t.TempDir()
		writeFile(t, second, "only.txt", "second")

		source, err := synth.OpenSource(synth.SourceDriverNameDir, first+string(os.PathListSeparator)+second)
		require.NoError(t, err)
		got, err := source.Get(context.Background(), "only.txt")
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := synth.OpenSource("carrier-pigeon", "")
		require.Error(t, err)
		assert.Equal(t, "carrier-pigeon", errMeta(t, err, synth.MetaKeyName))
	})

	t.Run("postgres without DSN", func(t *testing.T) {
		_, err := synth.OpenSource(synth.SourceDriverNamePostgres, "")
		require.Error(t, err)
	})
}

type stubDriver struct{}

func (stubDriver) Open(string) (synth.TemplateSource, error) {
	return synth.NewMapSource(map[string]string{"stub": "ok"}), nil
}

func TestRegisterSourceDriver(t *testing.T) {
	synth.RegisterSourceDriver("stub-for-test", stubDriver{})
	assert.Contains(t, synth.SourceDrivers(), "stub-for-test")

	source, err := synth.OpenSource("stub-for-test", "")
	require.NoError(t, err)
	got, err := source.Get(context.Background(), "stub")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	assert.Panics(t, func() { synth.RegisterSourceDriver("stub-for-test", stubDriver{}) })
	assert.Panics(t, func() { synth.RegisterSourceDriver("nil-driver", nil) })
}
