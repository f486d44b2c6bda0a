package refname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget_Peeled(t *testing.T) {
	id := ObjectID{1, 2, 3, 4}
	target := Peeled(id)
	assert.Equal(t, KindPeeled, target.Kind())
	got, err := target.ObjectID()
	require.NoError(t, err)
	assert.True(t, got.Equal(id))

	_, err = target.Referent()
	assert.ErrorIs(t, err, ErrNotSymbolic)
}

func TestTarget_Symbolic(t *testing.T) {
	name, err := NewFull("refs/heads/main")
	require.NoError(t, err)
	target := Symbolic(name)
	assert.Equal(t, KindSymbolic, target.Kind())

	got, err := target.Referent()
	require.NoError(t, err)
	assert.True(t, got.Equal(name))

	_, err = target.ObjectID()
	assert.ErrorIs(t, err, ErrNotPeeled)
}

func TestTarget_MustExist(t *testing.T) {
	target := MustExist(Sha1Len)
	assert.True(t, target.IsMustExist())
	id, err := target.ObjectID()
	require.NoError(t, err)
	assert.True(t, id.IsNull())
}

func TestTarget_Equal(t *testing.T) {
	a := Peeled(ObjectID{1, 2, 3})
	b := Peeled(ObjectID{1, 2, 3})
	c := Peeled(ObjectID{1, 2, 4})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	nameA, _ := NewFull("refs/heads/main")
	nameB, _ := NewFull("refs/heads/dev")
	assert.False(t, Symbolic(nameA).Equal(Symbolic(nameB)))
	assert.False(t, a.Equal(Symbolic(nameA)))
}
