package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirFetcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lexicon.json"), []byte(`{}`), 0o600))

	f := NewDirFetcher(root)

	b, err := f.Fetch(context.Background(), "lexicon.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))

	_, err = f.Fetch(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// paths cannot escape the root
	_, err = f.Fetch(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
