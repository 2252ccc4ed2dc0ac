package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, path, body string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestLoader_CachesBySourceIdentity(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.csv")
	mtime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	writeSource(t, path,
		"datetime;FR vers GB (MWh);GB vers FR (MWh)\n2023-01-01 00:00:00;100;-40\n",
		mtime)

	loader := NewLoader(nil, nil)

	first, err := loader.Load(ctx, path)
	require.NoError(t, err)
	second, err := loader.Load(ctx, path)
	require.NoError(t, err)

	assert.Same(t, first, second, "unchanged source must hit the cache")
	assert.Equal(t, 60.0, first.Records[0].NetTotal)
}

func TestLoader_InvalidatesOnModification(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.csv")

	writeSource(t, path,
		"datetime;FR vers GB (MWh);GB vers FR (MWh)\n2023-01-01 00:00:00;100;-40\n",
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	loader := NewLoader(nil, nil)
	first, err := loader.Load(ctx, path)
	require.NoError(t, err)

	writeSource(t, path,
		"datetime;FR vers GB (MWh);GB vers FR (MWh)\n2023-01-01 00:00:00;200;-40\n",
		time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))

	second, err := loader.Load(ctx, path)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 60.0, first.Records[0].NetTotal, "cached table stays immutable")
	assert.Equal(t, 160.0, second.Records[0].NetTotal)
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader(nil, nil)
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestLoader_SurfacesLoadFailures(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "broken.csv")
	writeSource(t, path, "datetime;whatever\noops;1\n",
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	loader := NewLoader(nil, nil)
	_, err := loader.Load(ctx, path)
	require.Error(t, err)

	var tsErr *TimestampResolutionError
	assert.ErrorAs(t, err, &tsErr, "load failures keep their taxonomy through wrapping")
}
