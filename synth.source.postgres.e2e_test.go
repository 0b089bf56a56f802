//go:build integration

package synth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresSource starts an ephemeral PostgreSQL container and opens a
// migrated source against it.
func setupPostgresSource(t *testing.T) (*PostgresSource, string, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("synth_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	source, err := NewPostgresSource(PostgresConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
		QueryTimeout:     30 * time.Second,
	})
	require.NoError(t, err, "failed to create postgres source")

	cleanup := func() {
		if source != nil {
			_ = source.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	}
	return source, connStr, cleanup
}

func TestPostgres_E2E_CRUD(t *testing.T) {
	source, _, cleanup := setupPostgresSource(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, source.Put(ctx, "greeting", "Hello {{ name }}", DialectDjango))
	require.NoError(t, source.Put(ctx, "banner", "<!--#echo var=\"title\" -->", DialectSSI))

	got, err := source.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{ name }}", got)

	dialect, err := source.Dialect(ctx, "banner")
	require.NoError(t, err)
	assert.Equal(t, DialectSSI, dialect)

	require.NoError(t, source.Put(ctx, "greeting", "Hi {{ name }}", DialectDjango))
	got, err = source.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hi {{ name }}", got)

	names, err := source.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"banner", "greeting"}, names)

	deleted, err := source.Delete(ctx, "banner")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = source.Delete(ctx, "banner")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = source.Get(ctx, "banner")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookup))

	_, err = source.Dialect(ctx, "banner")
	assert.True(t, errors.Is(err, ErrLookup))

	assert.Error(t, source.Put(ctx, "", "x", ""))
}

func TestPostgres_E2E_Migrations(t *testing.T) {
	source, _, cleanup := setupPostgresSource(t)
	defer cleanup()

	require.NoError(t, source.RunMigrations(context.Background()), "migrations are idempotent")
}

func TestPostgres_E2E_EngineIntegration(t *testing.T) {
	source, _, cleanup := setupPostgresSource(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, source.Put(ctx, "page", "{% include 'header' %}{% for x in xs %}{{ x }}{% endfor %}", DialectDjango))
	require.NoError(t, source.Put(ctx, "header", "# {{ title }}\n", DialectDjango))

	engine := MustNew(WithTemplateSource(source))

	out, err := engine.RenderNamed(ctx, "page", DialectDjango, map[string]any{
		"title": "Numbers",
		"xs":    []any{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "# Numbers\n123", out)

	_, err = engine.RenderNamed(ctx, "absent", DialectDjango, nil)
	assert.True(t, errors.Is(err, ErrLookup))
}

func TestPostgres_E2E_OpenSourceDriver(t *testing.T) {
	_, connStr, cleanup := setupPostgresSource(t)
	defer cleanup()

	opened, err := OpenSource(SourceDriverNamePostgres, connStr)
	require.NoError(t, err)
	pg, ok := opened.(*PostgresSource)
	require.True(t, ok)
	defer pg.Close()

	require.NoError(t, pg.Put(context.Background(), "x", "x", DialectTmpl))
	got, err := pg.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestPostgres_E2E_Concurrent(t *testing.T) {
	source, _, cleanup := setupPostgresSource(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, source.Put(ctx, "shared", "[{{ n }}]", DialectDjango))
	engine := MustNew(WithTemplateSource(source))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := engine.RenderNamed(ctx, "shared", DialectDjango, map[string]any{"n": n}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent render failed: %v", err)
	}
}

func TestPostgres_E2E_Closed(t *testing.T) {
	source, _, cleanup := setupPostgresSource(t)
	defer cleanup()

	require.NoError(t, source.Close())
	require.NoError(t, source.Close(), "close is idempotent")

	_, err := source.Get(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSourceClosed)
}
