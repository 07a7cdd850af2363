package seed

import (
	"compress/gzip"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSeedFile writes lines as a gzipped file named name under dir.
func writeSeedFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	file, err := os.Create(filePath)
	require.NoError(t, err)
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	for _, line := range lines {
		_, err := gzipWriter.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gzipWriter.Close())

	return filePath
}

func TestFileLoader_Load(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())
	ctx := context.Background()

	t.Run("one record per line, blank lines skipped", func(t *testing.T) {
		path := writeSeedFile(t, t.TempDir(), CategoriesFile,
			`{"name":"Desks","slug":"desks"}`,
			``,
			`   `,
			`{"name":"Chairs","slug":"chairs"}`,
		)

		records, err := loader.Load(ctx, path)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.JSONEq(t, `{"name":"Chairs","slug":"chairs"}`, string(records[1]))
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeSeedFile(t, t.TempDir(), CategoriesFile, `{"name":`)

		_, err := loader.Load(ctx, path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(ctx, filepath.Join(t.TempDir(), "nope.ndjson.gz"))

		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("not gzipped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.ndjson.gz")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"Desks"}`), 0o600))

		_, err := loader.Load(ctx, path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "gzip")
	})

	t.Run("cancelled context", func(t *testing.T) {
		lines := make([]string, 20_000)
		for i := range lines {
			lines[i] = `{"name":"x"}`
		}
		path := writeSeedFile(t, t.TempDir(), ProductsFile, lines...)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := loader.Load(cancelled, path)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
