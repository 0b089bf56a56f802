package internal

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func simpleTag(name, output string) *TagSpec {
	return &TagSpec{
		Name:  name,
		Arity: AritySimple,
		Factory: func([]Segment) (RenderFunc, error) {
			return func(*Context) (string, error) { return output, nil }, nil
		},
	}
}

func constFilter(name string, out any) *FilterSpec {
	return &FilterSpec{Name: name, Fn: func(any, []any) (any, error) { return out, nil }}
}

func TestSession_ResolveLibrary(t *testing.T) {
	empty := &Library{Name: "empty"}
	calls := map[string]int{}
	loader := LoaderFunc(func(name string) (*Library, error) {
		calls[name]++
		switch name {
		case "empty":
			return empty, nil
		case "nil":
			return nil, nil
		}
		return nil, errors.New("no such library")
	})

	session := NewSession(loader, zap.NewNop())

	t.Run("loader called once per name", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			lib, err := session.ResolveLibrary("empty")
			require.NoError(t, err)
			assert.Same(t, empty, lib)
		}
		assert.Equal(t, 1, calls["empty"])
	})

	t.Run("unknown library names the library", func(t *testing.T) {
		_, err := session.ResolveLibrary("nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLookup))

		var lookupErr *LookupError
		require.True(t, errors.As(err, &lookupErr))
		assert.Equal(t, "nope", lookupErr.Name)
		assert.Contains(t, err.Error(), "no such library")
	})

	t.Run("nil library is not an empty library", func(t *testing.T) {
		_, err := session.ResolveLibrary("nil")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLookup))
	})

	t.Run("no loader", func(t *testing.T) {
		_, err := NewSession(nil, nil).ResolveLibrary("any")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLookup))
	})
}

func TestSession_LastLoadedWins(t *testing.T) {
	first, err := NewLibrary("first", []*TagSpec{simpleTag("greet", "hi"), simpleTag("only", "1")}, []*FilterSpec{constFilter("f", "first")})
	require.NoError(t, err)
	second, err := NewLibrary("second", []*TagSpec{simpleTag("greet", "hello")}, []*FilterSpec{constFilter("f", "second")})
	require.NoError(t, err)

	session := NewSession(MapLoader{"first": first, "second": second}, nil)
	require.NoError(t, session.Load("first"))
	require.NoError(t, session.Load("second"))

	tag, err := session.ResolveTag("greet")
	require.NoError(t, err)
	assert.Same(t, second.Tags["greet"], tag)

	tag, err = session.ResolveTag("only")
	require.NoError(t, err)
	assert.Same(t, first.Tags["only"], tag)

	filter, err := session.ResolveFilter("f")
	require.NoError(t, err)
	assert.Same(t, second.Filters["f"], filter)

	_, err = session.ResolveTag("missing")
	assert.True(t, errors.Is(err, ErrLookup))
	assert.Contains(t, err.Error(), "missing")

	_, err = session.ResolveFilter("missing")
	assert.True(t, errors.Is(err, ErrUnknownFilter))
	assert.True(t, errors.Is(err, ErrLookup))
}

func TestSession_UseSubset(t *testing.T) {
	lib, err := NewLibrary("lib", []*TagSpec{simpleTag("a", "a"), simpleTag("b", "b")}, []*FilterSpec{constFilter("f", 1)})
	require.NoError(t, err)

	session := NewSession(nil, nil)
	require.NoError(t, session.Use(lib, "a", "f"))

	_, ok := session.LookupTag("a")
	assert.True(t, ok)
	_, ok = session.LookupTag("b")
	assert.False(t, ok)
	_, ok = session.LookupFilter("f")
	assert.True(t, ok)

	err = session.Use(lib, "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zzz")
}

func TestSession_ReservedNames(t *testing.T) {
	session := NewSession(nil, nil)
	require.NoError(t, session.Use(testLibrary(t)))

	assert.Equal(t, []string{"alt", "done", "else", "endbox", "endif"}, session.ReservedNames())
	assert.True(t, session.IsReserved("endif"))
	assert.False(t, session.IsReserved("touch"))
}

func TestLibrary_Validate(t *testing.T) {
	noop := func([]Segment) (RenderFunc, error) { return nil, nil }

	tests := []struct {
		name string
		spec *TagSpec
	}{
		{name: "empty name", spec: &TagSpec{Arity: AritySimple, Factory: noop}},
		{name: "missing factory", spec: &TagSpec{Name: "x", Arity: AritySimple}},
		{name: "simple with end tag", spec: &TagSpec{Name: "x", Arity: AritySimple, EndTags: []string{"endx"}, Factory: noop}},
		{name: "block with intermediate", spec: &TagSpec{Name: "x", Arity: ArityBlock, Intermediates: []string{"mid"}, Factory: noop}},
		{name: "intermediate equals end tag", spec: &TagSpec{Name: "x", Arity: ArityVariadic, Intermediates: []string{"endx"}, Factory: noop}},
		{name: "unknown arity", spec: &TagSpec{Name: "x", Arity: Arity(9), Factory: noop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLibrary("bad", []*TagSpec{tt.spec}, nil)
			assert.Error(t, err)
		})
	}

	t.Run("mismatched key", func(t *testing.T) {
		lib := &Library{Name: "bad", Tags: map[string]*TagSpec{"y": simpleTag("x", "")}}
		assert.Error(t, lib.Validate())
	})

	t.Run("duplicate filter", func(t *testing.T) {
		_, err := NewLibrary("bad", nil, []*FilterSpec{constFilter("f", 1), constFilter("f", 2)})
		assert.Error(t, err)
	})

	t.Run("default end tag", func(t *testing.T) {
		spec := &TagSpec{Name: "box", Arity: ArityBlock, Factory: noop}
		assert.Equal(t, []string{"endbox"}, spec.Terminators())
		assert.Nil(t, simpleTag("s", "").Terminators())
	})
}

func TestCachingLoader(t *testing.T) {
	lib := &Library{Name: "lib"}
	var (
		mu    sync.Mutex
		calls int
	)
	inner := LoaderFunc(func(name string) (*Library, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if name == "lib" {
			return lib, nil
		}
		return nil, errors.New("missing")
	})
	loader := NewCachingLoader(inner, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := loader.Load("lib")
			assert.NoError(t, err)
			assert.Same(t, lib, got)
		}()
	}
	wg.Wait()

	got, err := loader.Load("lib")
	require.NoError(t, err)
	assert.Same(t, lib, got)

	mu.Lock()
	before := calls
	mu.Unlock()
	assert.GreaterOrEqual(t, before, 1)

	_, err = loader.Load("other")
	assert.Error(t, err)
	_, err = loader.Load("other")
	assert.Error(t, err)

	mu.Lock()
	assert.Equal(t, before+2, calls)
	mu.Unlock()

	loader.Forget("lib")
	_, err = loader.Load("lib")
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, before+3, calls)
	mu.Unlock()
}
