package schemaset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctschema/ctschema/resolver"
	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/ctschema/ctschema/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Builtin(t *testing.T) {
	set, err := Open(Config{})
	require.NoError(t, err)
	root := set.Resolver().Root()
	t.Cleanup(func() { _ = set.Close() })

	_, err = os.Stat(filepath.Join(root, schemas.ClinicalTrialPath))
	require.NoError(t, err)
	_, err = set.For(schemas.ClinicalTrialPath)
	require.NoError(t, err)

	require.NoError(t, set.Close())
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, set.Close(), "second close is a no-op")
}

func TestOpen_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loose.json"), []byte(`{"type": "object"}`), 0o600))

	set, err := Open(Config{Root: dir, MetaSchema: MetaSchemaNone, Mode: resolver.ModeInlineLocal})
	require.NoError(t, err)
	assert.Equal(t, resolver.ModeInlineLocal, set.Resolver().Mode())
	_, err = set.For("loose.json")
	require.NoError(t, err)
	require.NoError(t, set.Close())
	_, err = os.Stat(dir)
	require.NoError(t, err, "a caller's directory is never removed")

	_, err = Open(Config{Root: dir})
	require.ErrorIs(t, err, schemaerrors.ErrSchemaLoad)
}

func TestOpen_MetaSchemaChecks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, schemas.Extract(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loose.json"), []byte(`{"type": "object"}`), 0o600))

	set, err := Open(Config{Root: dir})
	require.NoError(t, err)
	_, err = set.For("loose.json")
	require.ErrorIs(t, err, schemaerrors.ErrSchemaShape)
}
