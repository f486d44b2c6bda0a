package loose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/refstore/refname"
)

func TestStore_ReferencePathAndReflogPath(t *testing.T) {
	store := New("/base", refname.Sha1Len)
	name, err := refname.NewFull("refs/heads/main")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/base", "refs/heads/main"), store.ReferencePath(name))
	assert.Equal(t, filepath.Join("/base", "logs/refs/heads/main"), store.ReflogPath(name))
}

func TestStore_ReadPeeled(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, refname.Sha1Len)
	name, _ := refname.NewFull("refs/heads/main")

	require.NoError(t, os.MkdirAll(filepath.Dir(store.ReferencePath(name)), 0o755))
	hexID := "02a7a22d90d7c02fb494ed25551850b868e634f0"
	require.NoError(t, os.WriteFile(store.ReferencePath(name), []byte(hexID+"\n"), 0o644))

	target, ok, err := store.Read(name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, refname.KindPeeled, target.Kind())
	id, _ := target.ObjectID()
	assert.Equal(t, hexID, id.String())
}

func TestStore_ReadSymbolic(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, refname.Sha1Len)
	name, _ := refname.NewFull("HEAD")

	require.NoError(t, os.WriteFile(store.ReferencePath(name), []byte("ref: refs/heads/main\n"), 0o644))

	target, ok, err := store.Read(name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, refname.KindSymbolic, target.Kind())
	referent, _ := target.Referent()
	assert.Equal(t, "refs/heads/main", referent.String())
}

func TestStore_ReadAbsent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, refname.Sha1Len)
	name, _ := refname.NewFull("refs/heads/missing")

	_, ok, err := store.Read(name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ReadUndecodable(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, refname.Sha1Len)
	name, _ := refname.NewFull("HEAD")

	require.NoError(t, os.WriteFile(store.ReferencePath(name), []byte("broken"), 0o644))

	_, _, err := store.Read(name)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}
