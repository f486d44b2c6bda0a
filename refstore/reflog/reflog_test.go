package reflog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/refstore/refname"
)

func zero() refname.ObjectID { return refname.NullObjectID(refname.Sha1Len) }

func oid(b byte) refname.ObjectID {
	id := make(refname.ObjectID, refname.Sha1Len)
	id[len(id)-1] = b
	return id
}

func TestWriter_AppendAutocreatesUnderPrefix(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{AutoCreatePrefixes: []string{"refs/heads/"}})
	name, _ := refname.NewFull("refs/heads/main")

	require.NoError(t, w.Append(name, zero(), oid(1), "alice <a@example.com> 1 +0000", "commit: initial", false))

	entries, ok, err := w.Read(name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, oid(1).String(), entries[0].New.String())
	assert.Equal(t, "commit: initial", entries[0].Message)
}

func TestWriter_AppendSkipsOutsideAutocreateWithoutForce(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{AutoCreatePrefixes: []string{"refs/heads/"}})
	name, _ := refname.NewFull("refs/tags/v1")

	require.NoError(t, w.Append(name, zero(), oid(1), "alice <a@example.com> 1 +0000", "tag", false))

	_, ok, err := w.Read(name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriter_AppendForceCreateBypassesPrefix(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{AutoCreatePrefixes: []string{"refs/heads/"}})
	name, _ := refname.NewFull("refs/tags/v1")

	require.NoError(t, w.Append(name, zero(), oid(1), "alice <a@example.com> 1 +0000", "tag", true))

	_, ok, err := w.Read(name)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriter_AppendDisabledGloballySkipsWithoutForce(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{Disabled: true, AutoCreatePrefixes: []string{"refs/heads/"}})
	name, _ := refname.NewFull("refs/heads/main")

	require.NoError(t, w.Append(name, zero(), oid(1), "alice <a@example.com> 1 +0000", "commit", false))

	_, ok, err := w.Read(name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriter_AppendDisabledGloballyForceCreateStillWrites(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{Disabled: true, AutoCreatePrefixes: []string{"refs/heads/"}})
	name, _ := refname.NewFull("refs/heads/main")

	require.NoError(t, w.Append(name, zero(), oid(1), "alice <a@example.com> 1 +0000", "commit", true))

	entries, ok, err := w.Read(name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entries, 1)
}

func TestWriter_RemoveDeletesRegardlessOfPolicy(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{AutoCreatePrefixes: []string{"refs/heads/"}})
	name, _ := refname.NewFull("refs/heads/main")

	require.NoError(t, w.Append(name, zero(), oid(1), "alice <a@example.com> 1 +0000", "commit", false))
	require.NoError(t, w.Remove(name))

	_, err := os.Stat(w.path(name))
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_RemoveAbsentIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{})
	name, _ := refname.NewFull("refs/heads/missing")

	assert.NoError(t, w.Remove(name))
}

func TestWriter_HEADAlwaysAutocreates(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, Policy{})
	name, _ := refname.NewFull("HEAD")

	require.NoError(t, w.Append(name, zero(), oid(1), "alice <a@example.com> 1 +0000", "checkout", false))

	_, ok, err := w.Read(name)
	require.NoError(t, err)
	assert.True(t, ok)
}
